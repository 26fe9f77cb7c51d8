package http

import (
	"net/http"
	"strconv"
	"time"

	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
)

// ActorHeader carries the authenticated username, installed by the fronting
// auth layer. Handlers thread it through every operation explicitly instead
// of reading ambient security context.
const ActorHeader = "X-Actor-Username"

func Actor(r *http.Request) (string, error) {
	actor := r.Header.Get(ActorHeader)
	if actor == "" {
		return "", apperrors.Unauthorized("missing actor identity")
	}
	return actor, nil
}

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset), nil
}

// ExtractTimeRange parses required RFC3339 start/end query parameters.
func ExtractTimeRange(r *http.Request) (time.Time, time.Time, error) {
	query := r.URL.Query()

	start, err := time.Parse(time.RFC3339, query.Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid start parameter, must be RFC3339")
	}
	end, err := time.Parse(time.RFC3339, query.Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid end parameter, must be RFC3339")
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("end must be after start")
	}
	return start, end, nil
}
