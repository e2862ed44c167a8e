package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"launchpad/internal/apperr"
	"launchpad/internal/ids"
	"launchpad/internal/models"
	"launchpad/internal/policy"
	"launchpad/internal/repository"
)

type CommentStore interface {
	Create(ctx context.Context, c models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListTopLevel(ctx context.Context, productID string, includeHidden bool, limit, offset int) ([]models.Comment, int64, error)
	Replies(ctx context.Context, parentIDs []string, includeHidden bool) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
	Hide(ctx context.Context, id string) error
	Like(ctx context.Context, commentID, userID string) (bool, int, error)
	Unlike(ctx context.Context, commentID, userID string) (bool, int, error)
}

type ProductLookup interface {
	FindByID(ctx context.Context, id string) (models.Product, error)
}

type CommentService struct {
	comments CommentStore
	products ProductLookup
	notifier Notifier
	log      zerolog.Logger
}

func NewCommentService(comments CommentStore, products ProductLookup, notifier Notifier, log zerolog.Logger) *CommentService {
	return &CommentService{
		comments: comments,
		products: products,
		notifier: notifier,
		log:      log,
	}
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.BadRequest("Comment content is required")
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return "", apperr.BadRequest(fmt.Sprintf("Comment cannot exceed %d characters", models.MaxCommentLength))
	}
	return content, nil
}

// Create adds a top-level comment, or a reply when parentID is set.
// Replies only attach to top-level comments.
func (s *CommentService) Create(ctx context.Context, actor models.User, productID, content, parentID string) (models.Comment, error) {
	content, err := validateContent(content)
	if err != nil {
		return models.Comment{}, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return models.Comment{}, mapProductErr(err)
	}

	c := models.Comment{
		ID:        ids.New(),
		ProductID: productID,
		AuthorID:  actor.ID,
		Content:   content,
	}

	var parent models.Comment
	if parentID != "" {
		parent, err = s.findVisible(ctx, actor, parentID, "Parent comment not found")
		if err != nil {
			return models.Comment{}, err
		}
		if parent.ProductID != productID {
			return models.Comment{}, apperr.BadRequest("Parent comment belongs to another product")
		}
		if parent.IsReply() {
			return models.Comment{}, apperr.BadRequest("Replies cannot be nested")
		}
		c.ParentID = &parent.ID
	}

	if err := s.comments.Create(ctx, c); err != nil {
		return models.Comment{}, mapProductErr(err)
	}

	if c.IsReply() {
		s.notifier.Automatic(ctx, actor, NotifyInput{
			RecipientID: parent.AuthorID,
			Type:        models.NotificationReply,
			Content:     fmt.Sprintf("%s replied to your comment on %s", actor.Username, product.Name),
			RelatedID:   c.ID,
			RelatedKind: models.RelatedComment,
		})
	} else {
		s.notifier.Automatic(ctx, actor, NotifyInput{
			RecipientID: product.SubmittedBy,
			Type:        models.NotificationComment,
			Content:     fmt.Sprintf("%s commented on %s", actor.Username, product.Name),
			RelatedID:   product.ID,
			RelatedKind: models.RelatedProduct,
		})
	}

	return s.find(ctx, c.ID, "Comment not found")
}

// List pages the product's top-level comments with their replies inlined.
// Hidden comments are included only for viewers allowed to see them.
func (s *CommentService) List(ctx context.Context, viewer *models.User, productID string, limit, offset int) ([]models.Comment, int64, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, 0, mapProductErr(err)
	}

	includeHidden := viewer != nil && policy.Allowed(*viewer, policy.ViewHidden, "")

	top, total, err := s.comments.ListTopLevel(ctx, productID, includeHidden, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	parentIDs := make([]string, len(top))
	index := make(map[string]int, len(top))
	for i, c := range top {
		parentIDs[i] = c.ID
		index[c.ID] = i
		top[i].Replies = []models.Comment{}
	}

	replies, err := s.comments.Replies(ctx, parentIDs, includeHidden)
	if err != nil {
		return nil, 0, err
	}
	for _, r := range replies {
		if r.ParentID == nil {
			continue
		}
		if i, ok := index[*r.ParentID]; ok {
			top[i].Replies = append(top[i].Replies, r)
		}
	}

	return top, total, nil
}

// Edit rewrites the text. Only the author may do so, admins included.
func (s *CommentService) Edit(ctx context.Context, actor models.User, id, content string) (models.Comment, error) {
	content, err := validateContent(content)
	if err != nil {
		return models.Comment{}, err
	}
	c, err := s.find(ctx, id, "Comment not found")
	if err != nil {
		return models.Comment{}, err
	}
	if err := policy.Authorize(actor, policy.EditOwnContent, c.AuthorID); err != nil {
		return models.Comment{}, err
	}
	if err := s.comments.UpdateContent(ctx, id, content); err != nil {
		return models.Comment{}, mapCommentErr(err, "Comment not found")
	}
	return s.find(ctx, id, "Comment not found")
}

// Delete removes the comment and, for a top-level comment, its replies.
func (s *CommentService) Delete(ctx context.Context, actor models.User, id string) error {
	c, err := s.find(ctx, id, "Comment not found")
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ModifyOwned, c.AuthorID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return mapCommentErr(err, "Comment not found")
	}
	return nil
}

func (s *CommentService) Hide(ctx context.Context, actor models.User, id string) (models.Comment, error) {
	if err := policy.Authorize(actor, policy.HideComment, ""); err != nil {
		return models.Comment{}, err
	}
	if err := s.comments.Hide(ctx, id); err != nil {
		return models.Comment{}, mapCommentErr(err, "Comment not found")
	}
	return s.find(ctx, id, "Comment not found")
}

type LikeResult struct {
	LikeCount int  `json:"likeCount"`
	HasLiked  bool `json:"hasLiked"`
}

func (s *CommentService) Like(ctx context.Context, actor models.User, id string) (LikeResult, error) {
	if _, err := s.findVisible(ctx, actor, id, "Comment not found"); err != nil {
		return LikeResult{}, err
	}
	added, count, err := s.comments.Like(ctx, id, actor.ID)
	if err != nil {
		return LikeResult{}, err
	}
	if !added {
		return LikeResult{}, apperr.BadRequest("You have already liked this comment")
	}
	return LikeResult{LikeCount: count, HasLiked: true}, nil
}

func (s *CommentService) Unlike(ctx context.Context, actor models.User, id string) (LikeResult, error) {
	if _, err := s.findVisible(ctx, actor, id, "Comment not found"); err != nil {
		return LikeResult{}, err
	}
	removed, count, err := s.comments.Unlike(ctx, id, actor.ID)
	if err != nil {
		return LikeResult{}, err
	}
	if !removed {
		return LikeResult{}, apperr.BadRequest("You haven't liked this comment")
	}
	return LikeResult{LikeCount: count, HasLiked: false}, nil
}

func (s *CommentService) find(ctx context.Context, id, notFound string) (models.Comment, error) {
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return models.Comment{}, mapCommentErr(err, notFound)
	}
	return c, nil
}

// findVisible treats hidden comments as missing for actors who cannot see them.
func (s *CommentService) findVisible(ctx context.Context, actor models.User, id, notFound string) (models.Comment, error) {
	c, err := s.find(ctx, id, notFound)
	if err != nil {
		return models.Comment{}, err
	}
	if c.IsHidden && !policy.Allowed(actor, policy.ViewHidden, "") {
		return models.Comment{}, apperr.NotFound(notFound)
	}
	return c, nil
}

func mapCommentErr(err error, notFound string) error {
	if errors.Is(err, repository.ErrCommentNotFound) {
		return apperr.NotFound(notFound)
	}
	return err
}
