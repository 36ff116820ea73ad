package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/annotation"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/normalizer"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/table"
)

const (
	bodyKey = "body"

	contentTypeHTML = "text/html"
	contentTypeText = "text/plain"
)

type HttpError struct {
	code int
	error
}

func (e HttpError) Error() string {
	return e.error.Error()
}

func NewHttpError(code int, err error) HttpError {
	return HttpError{
		code:  code,
		error: err,
	}
}

type server struct {
	controller controller
}

func (s server) RegisterRoutes(r *gin.Engine) {
	entities := r.Group("/entities", validateBody)
	entities.POST("", s.Entities)
	entities.POST("/aggregate", s.Aggregate)
	entities.POST("/table", s.Table)
	entities.POST("/top", s.Top)

	patterns := r.Group("/patterns", validateBody)
	patterns.POST("", s.Patterns)
	patterns.POST("/hits", s.PatternHits)
	patterns.POST("/table", s.PatternTable)

	r.POST("/annotate", validateBody, s.Annotate)
	r.GET("/entity/:type/:id", s.EntityDetails)
	r.GET("/autocomplete", s.Autocomplete)
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
}

func (s server) Entities(c *gin.Context) {
	opts, err := entityOptions(c)
	if err != nil {
		handleError(c, err)
		return
	}
	records, err := s.controller.Entities(body(c), opts)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s server) Aggregate(c *gin.Context) {
	opts, err := entityOptions(c)
	if err != nil {
		handleError(c, err)
		return
	}
	agg, err := s.controller.Aggregate(body(c), annotation.ParseEntityTypes(c.Query("entity_types")), opts)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

func (s server) Table(c *gin.Context) {
	opts, err := entityOptions(c)
	if err != nil {
		handleError(c, err)
		return
	}
	t, err := s.controller.Table(body(c), opts, c.QueryArray("columns"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s server) Top(c *gin.Context) {
	opts, err := entityOptions(c)
	if err != nil {
		handleError(c, err)
		return
	}
	top, err := intQuery(c, "top", 10)
	if err != nil {
		handleError(c, err)
		return
	}
	t, err := s.controller.Top(body(c), opts, table.RankOptions{
		Columns:     c.QueryArray("columns"),
		Top:         top,
		EntityTypes: annotation.ParseEntityTypes(c.Query("entity_types")),
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s server) Patterns(c *gin.Context) {
	opts, err := patternOptions(c)
	if err != nil {
		handleError(c, err)
		return
	}
	records, err := s.controller.Patterns(body(c), opts)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s server) PatternHits(c *gin.Context) {
	opts, err := patternOptions(c)
	if err != nil {
		handleError(c, err)
		return
	}
	hits, err := s.controller.PatternHits(body(c), opts)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, hits)
}

func (s server) PatternTable(c *gin.Context) {
	opts, err := patternOptions(c)
	if err != nil {
		handleError(c, err)
		return
	}
	t, err := s.controller.PatternTable(body(c), opts, c.QueryArray("columns"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Annotate takes text/plain or text/html. Query parameters other than the filter options are passed to TERMite.
func (s server) Annotate(c *gin.Context) {
	contentType := c.ContentType()
	if contentType != contentTypeHTML && contentType != contentTypeText {
		handleError(c, NewHttpError(http.StatusBadRequest, errors.New("invalid content type - must be text/html or text/plain")))
		return
	}
	opts, err := entityOptions(c)
	if err != nil {
		handleError(c, err)
		return
	}

	options := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if _, ok := filterParams[key]; ok || len(values) == 0 {
			continue
		}
		options[key] = values[0]
	}

	records, err := s.controller.Annotate(c.Request.Context(), body(c), contentType, options, opts)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s server) EntityDetails(c *gin.Context) {
	details, err := s.controller.EntityDetails(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (s server) Autocomplete(c *gin.Context) {
	term, ok := c.GetQuery("term")
	if !ok {
		handleError(c, NewHttpError(http.StatusBadRequest, errors.New("term query parameter is required")))
		return
	}
	res, err := s.controller.Autocomplete(c.Request.Context(), term, c.Query("vocab"), c.Query("taxon"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", res)
}

var filterParams = map[string]struct{}{
	"reject_ambiguous": {},
	"score_cutoff":     {},
	"keep_subsumed":    {},
}

func entityOptions(c *gin.Context) (normalizer.EntityOptions, error) {
	opts := normalizer.DefaultEntityOptions()
	var err error
	if opts.RejectAmbiguous, err = boolQuery(c, "reject_ambiguous", opts.RejectAmbiguous); err != nil {
		return opts, err
	}
	if opts.ScoreCutoff, err = floatQuery(c, "score_cutoff", opts.ScoreCutoff); err != nil {
		return opts, err
	}
	keep, err := boolQuery(c, "keep_subsumed", !opts.RemoveSubsumed)
	if err != nil {
		return opts, err
	}
	opts.RemoveSubsumed = !keep
	return opts, nil
}

func patternOptions(c *gin.Context) (normalizer.PatternOptions, error) {
	opts := normalizer.DefaultPatternOptions()
	var err error
	if opts.ScoreCutoff, err = floatQuery(c, "score_cutoff", opts.ScoreCutoff); err != nil {
		return opts, err
	}
	keep, err := boolQuery(c, "keep_subsumed", !opts.RemoveSubsumed)
	if err != nil {
		return opts, err
	}
	opts.RemoveSubsumed = !keep
	return opts, nil
}

func boolQuery(c *gin.Context, key string, def bool) (bool, error) {
	v, ok := c.GetQuery(key)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, NewHttpError(http.StatusBadRequest, fmt.Errorf("%s must be true or false", key))
	}
	return b, nil
}

func floatQuery(c *gin.Context, key string, def float64) (float64, error) {
	v, ok := c.GetQuery(key)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, NewHttpError(http.StatusBadRequest, fmt.Errorf("%s must be a number", key))
	}
	return f, nil
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	v, ok := c.GetQuery(key)
	if !ok {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def, NewHttpError(http.StatusBadRequest, fmt.Errorf("%s must be an integer", key))
	}
	return i, nil
}

// validateBody reads the whole body so handlers can parse it more than once.
func validateBody(c *gin.Context) {
	b, err := c.GetRawData()
	if err != nil {
		handleError(c, NewHttpError(http.StatusBadRequest, err))
		return
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		handleError(c, NewHttpError(http.StatusBadRequest, errors.New("request body missing")))
		return
	}
	c.Set(bodyKey, b)
	c.Next()
}

func body(c *gin.Context) []byte {
	return c.MustGet(bodyKey).([]byte)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		abort(c, http.StatusInternalServerError, errors.New("abort called on nil error"))
		return
	}
	var httpErr HttpError
	if errors.As(err, &httpErr) {
		abort(c, httpErr.code, httpErr.error)
		return
	}
	abort(c, http.StatusInternalServerError, err)
}

func abort(c *gin.Context, code int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, map[string]interface{}{
		"status":  code,
		"message": err.Error(),
	})
}
