package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/navoditbharat/mapsketch/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the session service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	positionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Position",
		Fields: graphql.Fields{
			"lng": &graphql.Field{Type: graphql.Float},
			"lat": &graphql.Field{Type: graphql.Float},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"index":    &graphql.Field{Type: graphql.Int},
			"position": &graphql.Field{Type: positionType},
			"label":    &graphql.Field{Type: graphql.String},
		},
	})

	polygonType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Polygon",
		Fields: graphql.Fields{
			"vertices": &graphql.Field{Type: graphql.NewList(positionType), Description: "Open ring as drawn"},
			"ring":     &graphql.Field{Type: graphql.NewList(positionType), Description: "Ring with its closing vertex"},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	viewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapView",
		Fields: graphql.Fields{
			"markers":    &graphql.Field{Type: graphql.NewList(markerType)},
			"polygon":    &graphql.Field{Type: polygonType},
			"area":       &graphql.Field{Type: graphql.Float, Description: "Square meters, null when undefined"},
			"area_label": &graphql.Field{Type: graphql.String},
			"drawing":    &graphql.Field{Type: graphql.Boolean},
			"bounds":     &graphql.Field{Type: boundsType},
		},
	})

	warningType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ImportWarning",
		Fields: graphql.Fields{
			"index": &graphql.Field{Type: graphql.Int},
			"kind":  &graphql.Field{Type: graphql.String},
		},
	})

	importResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ImportResult",
		Fields: graphql.Fields{
			"view":     &graphql.Field{Type: viewType},
			"warnings": &graphql.Field{Type: graphql.NewList(warningType)},
		},
	})

	positionArgs := graphql.FieldConfigArgument{
		"lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"state": &graphql.Field{
				Type:        viewType,
				Description: "Current map view",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return viewToGraph(deps.Map.View()), nil
				},
			},
			"markers": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "Markers in placement order",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultMarkersLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					offset := p.Args["offset"].(int)
					limit := p.Args["limit"].(int)
					if offset < 0 || limit <= 0 {
						return nil, errors.New("offset must be >= 0 and limit > 0")
					}

					markers, _ := page(markersToGraph(deps.Map.View()), offset, limit)
					return markers, nil
				},
			},
			"area": &graphql.Field{
				Type:        graphql.Float,
				Description: "Geodesic polygon area in square meters, null when undefined",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if area := deps.Map.View().Area; area != nil {
						return *area, nil
					}
					return nil, nil
				},
			},
			"export": &graphql.Field{
				Type:        graphql.String,
				Description: "State as a GeoJSON FeatureCollection",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					data, err := deps.Map.Export(p.Context)
					if err != nil {
						return nil, err
					}
					return string(data), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"click": &graphql.Field{
				Type: viewType,
				Args: positionArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pos, err := positionArg(p)
					if err != nil {
						return nil, err
					}
					return viewToGraph(deps.Map.Click(p.Context, pos)), nil
				},
			},
			"addMarker": &graphql.Field{
				Type: viewType,
				Args: positionArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pos, err := positionArg(p)
					if err != nil {
						return nil, err
					}
					return viewToGraph(deps.Map.AddMarker(p.Context, pos)), nil
				},
			},
			"addVertex": &graphql.Field{
				Type: viewType,
				Args: positionArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pos, err := positionArg(p)
					if err != nil {
						return nil, err
					}
					return viewToGraph(deps.Map.AddVertex(p.Context, pos)), nil
				},
			},
			"toggleDrawing": &graphql.Field{
				Type: viewType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return viewToGraph(deps.Map.ToggleDrawing(p.Context)), nil
				},
			},
			"clear": &graphql.Field{
				Type: viewType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return viewToGraph(deps.Map.Clear(p.Context)), nil
				},
			},
			"save": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := deps.Map.Save(p.Context); err != nil {
						return false, err
					}
					return true, nil
				},
			},
			"load": &graphql.Field{
				Type:        viewType,
				Description: "Restore the saved slot, null when nothing is saved",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					view, ok := deps.Map.Load(p.Context)
					if !ok {
						return nil, nil
					}
					return viewToGraph(view), nil
				},
			},
			"importGeoJSON": &graphql.Field{
				Type: importResultType,
				Args: graphql.FieldConfigArgument{
					"document": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					doc := p.Args["document"].(string)
					res, err := deps.Map.Import(p.Context, []byte(doc))
					if err != nil {
						return nil, err
					}

					warnings := make([]map[string]interface{}, 0, len(res.Warnings))
					for _, w := range res.Warnings {
						warnings = append(warnings, map[string]interface{}{"index": w.Index, "kind": w.Kind})
					}
					return map[string]interface{}{
						"view":     viewToGraph(res.View),
						"warnings": warnings,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// positionArg reads the non-null lng and lat arguments and checks their range.
func positionArg(p graphql.ResolveParams) (domain.Position, error) {
	lng, err := floatArg(p.Args, "lng", "gte=-180,lte=180")
	if err != nil {
		return domain.Position{}, err
	}
	lat, err := floatArg(p.Args, "lat", "gte=-90,lte=90")
	if err != nil {
		return domain.Position{}, err
	}
	return domain.NewPosition(lng, lat), nil
}

func floatArg(args map[string]interface{}, name, rule string) (float64, error) {
	v, ok := args[name].(float64)
	if !ok {
		return 0, fmt.Errorf("invalid position: %s must be a number, got %T", name, args[name])
	}
	if err := validate.Var(v, rule); err != nil {
		return 0, fmt.Errorf("invalid position: %s %g out of range (%s)", name, v, rule)
	}
	return v, nil
}

func positionToGraph(p domain.Position) map[string]interface{} {
	return map[string]interface{}{"lng": p.Lon(), "lat": p.Lat()}
}

func positionsToGraph(ps []domain.Position) []map[string]interface{} {
	out := make([]map[string]interface{}, len(ps))
	for i, p := range ps {
		out[i] = positionToGraph(p)
	}
	return out
}

func markersToGraph(v domain.View) []map[string]interface{} {
	out := make([]map[string]interface{}, len(v.Markers))
	for i, m := range v.Markers {
		out[i] = map[string]interface{}{
			"index":    i,
			"position": positionToGraph(m.Coordinates),
			"label":    v.Summary.Markers[i],
		}
	}
	return out
}

func viewToGraph(v domain.View) map[string]interface{} {
	out := map[string]interface{}{
		"markers": markersToGraph(v),
		"drawing": v.Drawing,
		"polygon": nil,
		"area":    nil,
		"bounds":  nil,
	}
	if v.Polygon != nil {
		out["polygon"] = map[string]interface{}{
			"vertices": positionsToGraph(v.Polygon.Coordinates),
			"ring":     positionsToGraph(v.Polygon.Closed()),
		}
	}
	if v.Area != nil {
		out["area"] = *v.Area
		out["area_label"] = v.Summary.Area
	}
	if v.Bounds != nil {
		out["bounds"] = map[string]interface{}{
			"min_lat": v.Bounds.MinLat,
			"min_lon": v.Bounds.MinLon,
			"max_lat": v.Bounds.MaxLat,
			"max_lon": v.Bounds.MaxLon,
		}
	}
	return out
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
