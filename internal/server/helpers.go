package server

import (
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"socialnet/internal/models"
	"socialnet/internal/pagination"

	"github.com/gofiber/fiber/v2"
)

// parseID extracts a route parameter by name as a positive uint.
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "postId" -> "Invalid post ID", "commentId" -> "Invalid comment ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("Invalid " + humanizeParam(param))
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

var errPageOutOfRange = models.NewValidationError("Invalid page")

// parsePage reads the 1-based page and page_size query parameters.
// A page number whose offset would overflow is rejected.
func (s *Server) parsePage(c *fiber.Ctx) (pagination.Page, error) {
	page := pagination.Normalize(
		c.QueryInt("page", 1),
		c.QueryInt("page_size", s.config.DefaultPageSize),
		s.config.DefaultPageSize,
		s.config.MaxPageSize,
	)
	if page.Number > pagination.MaxNumber(s.config.MaxPageSize) {
		return pagination.Page{}, errPageOutOfRange
	}
	return page, nil
}

// pageURL is the absolute URL of the current request with page replaced.
func pageURL(c *fiber.Ctx, number int) *string {
	args := c.Request().URI().QueryArgs()
	query := make([]string, 0, args.Len()+1)
	args.VisitAll(func(key, value []byte) {
		if string(key) == "page" {
			return
		}
		query = append(query, url.QueryEscape(string(key))+"="+url.QueryEscape(string(value)))
	})
	query = append(query, "page="+strconv.Itoa(number))

	link := c.BaseURL() + c.Path() + "?" + strings.Join(query, "&")
	return &link
}

// newPage builds the {count, next, previous, results} envelope.
func newPage[T any](c *fiber.Ctx, page pagination.Page, total int64, results []T) models.Page[T] {
	if results == nil {
		results = []T{}
	}
	out := models.Page[T]{Count: total, Results: results}
	if page.HasNext(total) {
		out.Next = pageURL(c, page.Number+1)
	}
	if page.HasPrevious() {
		out.Previous = pageURL(c, page.Number-1)
	}
	return out
}

// respondPage maps rows through view and writes the page envelope.
func respondPage[M any, T any](c *fiber.Ctx, page pagination.Page, total int64, rows []M, view func(M) T) error {
	results := make([]T, 0, len(rows))
	for _, row := range rows {
		results = append(results, view(row))
	}
	return c.JSON(newPage(c, page, total, results))
}

// detail writes a {"detail": msg} body with the given status.
func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}
