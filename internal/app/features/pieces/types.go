// internal/app/features/pieces/types.go
package pieces

import (
	"strings"
	"time"

	"github.com/dalemusser/kilntrack/internal/domain/errs"
	"github.com/dalemusser/kilntrack/internal/domain/models"
)

// allFilter is the value the admin filters use for "no filter".
const allFilter = "Tous"

// dateOnly is the layout an HTML date input produces.
const dateOnly = "2006-01-02"

// pieceRequest is the POST body for /pieces and /pieces/submissions.
// desiredDate accepts RFC 3339 or a bare YYYY-MM-DD date (midnight UTC).
type pieceRequest struct {
	models.PieceInput
	DesiredDate *string `json:"desiredDate"`
}

func (req pieceRequest) toInput() (models.PieceInput, error) {
	in := req.PieceInput
	in.DesiredDate = nil
	if req.DesiredDate == nil {
		return in, nil
	}
	raw := strings.TrimSpace(*req.DesiredDate)
	if raw == "" {
		return in, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		in.DesiredDate = &t
		return in, nil
	}
	if t, err := time.Parse(dateOnly, raw); err == nil {
		in.DesiredDate = &t
		return in, nil
	}
	return in, &errs.ValidationError{Field: "desiredDate", Message: "must be an RFC 3339 timestamp or YYYY-MM-DD"}
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// statsResponse is the body of GET /pieces/stats.
type statsResponse struct {
	Pending int `json:"pending"`
	Fired   int `json:"fired"`
	Urgent  int `json:"urgent"`
	Soon    int `json:"soon"`
	OK      int `json:"ok"`
}
