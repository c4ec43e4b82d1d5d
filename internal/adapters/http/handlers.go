package http

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
)

const (
	exportFilename      = "map_data.geojson"
	contentTypeGeoJSON  = "application/geo+json"
	importFormField     = "file"
	defaultMarkersLimit = 100
	maxMarkersLimit     = 500
)

// GetStateHandler returns the current view.
func GetStateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Map.View())
	}
}

// ClearStateHandler removes all markers and the polygon.
func ClearStateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Map.Clear(c.UserContext()))
	}
}

// SaveStateHandler writes the current state to the saved slot.
func SaveStateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Map.Save(c.UserContext()); err != nil {
			LoggerFromCtx(c.UserContext()).Error("save state failed", "error", err)
			return errInternal(c, "could not save map state")
		}
		return c.JSON(fiber.Map{
			"status":  "saved",
			"message": "Map state saved successfully!",
		})
	}
}

// LoadStateHandler replaces the current state with the saved slot.
func LoadStateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, ok := deps.Map.Load(c.UserContext())
		if !ok {
			return errNotFound(c, "no saved map state")
		}
		return c.JSON(view)
	}
}

// ClickHandler handles a map click at {lng, lat}.
func ClickHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pos, err := parsePosition(c)
		if err != nil {
			return writeRequestError(c, err)
		}
		return c.JSON(deps.Map.Click(c.UserContext(), pos))
	}
}

// ToggleDrawingHandler flips drawing mode.
func ToggleDrawingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Map.ToggleDrawing(c.UserContext()))
	}
}

// ListMarkersHandler returns markers with offset/limit pagination.
func ListMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c, defaultMarkersLimit, maxMarkersLimit)
		markers, pg := page(deps.Map.State().Markers, offset, limit)

		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: markers, Pagination: pg})
	}
}

// AddMarkerHandler appends a marker regardless of drawing mode.
func AddMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pos, err := parsePosition(c)
		if err != nil {
			return writeRequestError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(deps.Map.AddMarker(c.UserContext(), pos))
	}
}

// AddVertexHandler appends a polygon vertex regardless of drawing mode.
func AddVertexHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pos, err := parsePosition(c)
		if err != nil {
			return writeRequestError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(deps.Map.AddVertex(c.UserContext(), pos))
	}
}

// ExportHandler downloads the state as a GeoJSON FeatureCollection.
func ExportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := deps.Map.Export(c.UserContext())
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("export failed", "error", err)
			return errInternal(c, "could not export map state")
		}

		c.Set(fiber.HeaderContentType, contentTypeGeoJSON)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, exportFilename))
		return c.Send(data)
	}
}

// ImportHandler replaces the state with an uploaded GeoJSON document, sent
// either as the multipart field "file" or as the raw request body.
func ImportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := readUpload(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if len(data) == 0 {
			return errBadRequest(c, "empty upload")
		}

		res, err := deps.Map.Import(c.UserContext(), data)
		if err != nil {
			var decodeErr *domain.DecodeError
			if errors.As(err, &decodeErr) {
				LoggerFromCtx(c.UserContext()).Warn("rejected geojson import", "error", err)
				return errInvalidGeoJSON(c, decodeErr.Error())
			}
			return errInternal(c, "could not import map state")
		}

		return c.JSON(res)
	}
}

// requestError is a client mistake found while decoding a request.
type requestError struct {
	message string
	details []string
}

func (e *requestError) Error() string { return e.message }

func parsePosition(c *fiber.Ctx) (domain.Position, error) {
	var req PositionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.Position{}, &requestError{message: "invalid request body"}
	}
	if err := validate.Struct(req); err != nil {
		return domain.Position{}, &requestError{message: "request validation failed", details: validationDetails(err)}
	}
	return req.Position(), nil
}

func writeRequestError(c *fiber.Ctx, err error) error {
	var reqErr *requestError
	if !errors.As(err, &reqErr) {
		return errInternal(c, err.Error())
	}
	if len(reqErr.details) > 0 {
		return errValidation(c, reqErr.details)
	}
	return errBadRequest(c, reqErr.message)
}

func readUpload(c *fiber.Ctx) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return c.Body(), nil
	}

	fh, err := c.FormFile(importFormField)
	if err != nil {
		return nil, fmt.Errorf("multipart field %q is required", importFormField)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}
