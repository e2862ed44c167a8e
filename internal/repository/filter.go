package repository

import (
	"strconv"
	"strings"
)

// clauses accumulates WHERE conditions with positional arguments.
type clauses struct {
	conds []string
	args  []any
}

// add appends cond, replacing each ? with the next placeholder.
func (c *clauses) add(cond string, args ...any) {
	for _, arg := range args {
		c.args = append(c.args, arg)
		cond = strings.Replace(cond, "?", "$"+strconv.Itoa(len(c.args)), 1)
	}
	c.conds = append(c.conds, cond)
}

func (c *clauses) where() string {
	if len(c.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.conds, " AND ")
}

// next returns the placeholder for an argument appended after the conditions.
func (c *clauses) next(arg any) string {
	c.args = append(c.args, arg)
	return "$" + strconv.Itoa(len(c.args))
}

// containsPattern builds a case-insensitive substring pattern with LIKE
// metacharacters escaped.
func containsPattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

func orderBy(columns map[string]string, sortBy, sortOrder, fallback string) string {
	col, ok := columns[sortBy]
	if !ok {
		col = fallback
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	return " ORDER BY " + col + " " + dir
}
