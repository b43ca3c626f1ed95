package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/usecases"
)

// reportRequest is the JSON body of a citizen report. Coordinates may be
// sent as numbers or strings.
type reportRequest struct {
	IssueType     string          `json:"issue_type"`
	ContainerType string          `json:"container_type"`
	Description   string          `json:"description"`
	Lat           json.RawMessage `json:"lat"`
	Lng           json.RawMessage `json:"lng"`
}

// ReportIssueHandler accepts a citizen issue report from the public map.
func ReportIssueHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := parseReportInput(c)
		if err != nil {
			c.Locals(localIntakeOutcome, outcomeInvalid)
			return intakeError(c, fiber.StatusBadRequest, "invalid request body")
		}

		ctx := c.UserContext()
		report, err := deps.Reports.SubmitReport(ctx, in)
		var rej *usecases.RejectionError
		switch {
		case errors.As(err, &rej):
			c.Locals(localIntakeOutcome, outcomeRejected)
			return intakeError(c, fiber.StatusForbidden, rej.Error())
		case err != nil:
			c.Locals(localIntakeOutcome, outcomeFailed)
			LoggerFromCtx(ctx).Error("report submission failed", "error", err)
			return intakeError(c, fiber.StatusInternalServerError, "could not save report")
		}

		c.Locals(localIntakeOutcome, outcomeAccepted)
		c.Locals(localReportID, report.ID)
		return c.JSON(intakeResponse{Status: "success", ID: report.ID})
	}
}

// reportFields are the form keys a report body may carry. A body that is
// neither JSON nor carries any of them is rejected.
var reportFields = []string{"issue_type", "container_type", "lat", "lng", "description"}

var errUnreadableBody = errors.New("body is neither JSON nor a report form")

// parseReportInput reads a JSON or form report. JSON is detected by content
// type or by a body starting with '{' or '[', so clients that omit the
// header still have their coordinates checked.
func parseReportInput(c *fiber.Ctx) (domain.ReportInput, error) {
	body := bytes.TrimSpace(c.Body())
	ctype := strings.ToLower(c.Get(fiber.HeaderContentType))

	switch {
	case len(body) > 0 && (body[0] == '{' || body[0] == '['):
		return parseJSONReport(body)
	case strings.HasPrefix(ctype, fiber.MIMEApplicationJSON):
		return parseJSONReport(body)
	case strings.HasPrefix(ctype, fiber.MIMEApplicationForm), strings.HasPrefix(ctype, fiber.MIMEMultipartForm):
		return formReport(c.FormValue), nil
	case len(body) == 0:
		return domain.ReportInput{}, nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return domain.ReportInput{}, errUnreadableBody
	}
	for _, k := range reportFields {
		if values.Has(k) {
			return formReport(func(key string, _ ...string) string { return values.Get(key) }), nil
		}
	}
	return domain.ReportInput{}, errUnreadableBody
}

func formReport(value func(key string, defaultValue ...string) string) domain.ReportInput {
	return domain.ReportInput{
		Category:    firstNonEmpty(value("issue_type"), value("container_type")),
		Description: value("description"),
		Location:    coordinate(value("lat"), value("lng")),
	}
}

func parseJSONReport(body []byte) (domain.ReportInput, error) {
	var req reportRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return domain.ReportInput{}, err
		}
	}
	return domain.ReportInput{
		Category:    firstNonEmpty(req.IssueType, req.ContainerType),
		Description: req.Description,
		Location:    coordinate(rawScalar(req.Lat), rawScalar(req.Lng)),
	}, nil
}

// coordinate returns nil unless both values parse as finite numbers. Range
// is not checked here; out-of-range points are rejected downstream.
func coordinate(lat, lng string) *domain.GeoPoint {
	la, ok := parseFloat(lat)
	if !ok {
		return nil
	}
	lo, ok := parseFloat(lng)
	if !ok {
		return nil
	}
	return &domain.GeoPoint{Lat: la, Lon: lo}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// rawScalar turns a JSON number or string into its text form. Anything else
// yields "".
func rawScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
