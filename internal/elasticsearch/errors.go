package elasticsearch

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
)

const (
	typeIndexNotFound = "index_not_found_exception"
	typeAlreadyExists = "resource_already_exists_exception"
)

type errorBody struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// responseError converts a failed response. A 404 becomes *domain.NotFoundError.
func responseError(op, index string, res *esapi.Response) error {
	raw, _ := io.ReadAll(res.Body)

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Error.Type == "" {
		body.Error.Reason = string(raw)
	}

	if res.StatusCode == http.StatusNotFound || body.Error.Type == typeIndexNotFound {
		return &domain.NotFoundError{Index: index}
	}

	return &domain.ClusterError{
		Op:         op,
		Index:      index,
		StatusCode: res.StatusCode,
		Type:       body.Error.Type,
		Reason:     body.Error.Reason,
	}
}

func transportError(op, index string, err error) error {
	return &domain.ClusterError{Op: op, Index: index, Err: err}
}
