package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/looopone/internal/core/domain"
	"github.com/samirrijal/looopone/internal/core/usecases"
)

// buildSchema creates the read-only dashboard schema. Domain structs resolve
// through their json tags.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	containerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Container",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.Int},
			"container_id":   &graphql.Field{Type: graphql.String},
			"container_type": &graphql.Field{Type: graphql.String},
			"capacity":       &graphql.Field{Type: graphql.Int},
			"fill_level":     &graphql.Field{Type: graphql.Int},
			"location":       &graphql.Field{Type: geoPointType},
			"address":        &graphql.Field{Type: graphql.String},
			"neighborhood":   &graphql.Field{Type: graphql.String},
			"status":         &graphql.Field{Type: graphql.String},
			"battery_level":  &graphql.Field{Type: graphql.Int},
			"report_type":    &graphql.Field{Type: graphql.String},
			"description":    &graphql.Field{Type: graphql.String},
			"distance":       &graphql.Field{Type: graphql.Float},
		},
	})

	alertType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Alert",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.Int},
			"container_id": &graphql.Field{Type: graphql.Int},
			"alert_type":   &graphql.Field{Type: graphql.String},
			"priority":     &graphql.Field{Type: graphql.String},
			"message":      &graphql.Field{Type: graphql.String},
			"is_resolved":  &graphql.Field{Type: graphql.Boolean},
			"resolved_by":  &graphql.Field{Type: graphql.String},
			"created_at":   &graphql.Field{Type: graphql.DateTime},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CollectionRoute",
		Fields: graphql.Fields{
			"id":                &graphql.Field{Type: graphql.Int},
			"route_name":        &graphql.Field{Type: graphql.String},
			"driver":            &graphql.Field{Type: graphql.String},
			"vehicle_plate":     &graphql.Field{Type: graphql.String},
			"container_ids":     &graphql.Field{Type: graphql.NewList(graphql.Int)},
			"scheduled_date":    &graphql.Field{Type: graphql.DateTime},
			"started_at":        &graphql.Field{Type: graphql.DateTime},
			"completed_at":      &graphql.Field{Type: graphql.DateTime},
			"status":            &graphql.Field{Type: graphql.String},
			"total_distance_km": &graphql.Field{Type: graphql.Float},
			"notes":             &graphql.Field{Type: graphql.String},
			"containers_count": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					switch r := p.Source.(type) {
					case domain.CollectionRoute:
						return r.ContainersCount(), nil
					case *domain.CollectionRoute:
						return r.ContainersCount(), nil
					}
					return nil, nil
				},
			},
		},
	})

	// The embedded Container is exposed as a nested object.
	containerDetailType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ContainerDetail",
		Fields: graphql.Fields{
			"container": &graphql.Field{
				Type: containerType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return &p.Source.(*domain.ContainerDetail).Container, nil
				},
			},
			"recent_alerts": &graphql.Field{Type: graphql.NewList(alertType)},
			"recent_routes": &graphql.Field{Type: graphql.NewList(routeType)},
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DashboardStats",
		Fields: graphql.Fields{
			"total_containers":    &graphql.Field{Type: graphql.Int},
			"full_containers":     &graphql.Field{Type: graphql.Int},
			"avg_fill_level":      &graphql.Field{Type: graphql.Float},
			"active_alerts":       &graphql.Field{Type: graphql.Int},
			"critical_alerts":     &graphql.Field{Type: graphql.Int},
			"today_routes":        &graphql.Field{Type: graphql.Int},
			"completed_routes_7d": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"containers": &graphql.Field{
				Type:        graphql.NewList(containerType),
				Description: "Active containers, optionally filtered",
				Args: graphql.FieldConfigArgument{
					"type":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"min_fill": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"status":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"search":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Containers.ListActive(p.Context, domain.ContainerFilter{
						Type:         domain.ContainerType(p.Args["type"].(string)),
						MinFillLevel: p.Args["min_fill"].(int),
						Status:       domain.ContainerStatus(p.Args["status"].(string)),
						Search:       p.Args["search"].(string),
					})
				},
			},
			"container": &graphql.Field{
				Type:        containerDetailType,
				Description: "One container with its recent alerts and routes",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Containers.Detail(p.Context, int64(p.Args["id"].(int)))
				},
			},
			"routes": &graphql.Field{
				Type:        graphql.NewList(routeType),
				Description: "Collection routes",
				Args: graphql.FieldConfigArgument{
					"today":           &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"completed_since": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"status":          &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"container_id":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := usecases.RouteQuery{
						Today:       p.Args["today"].(bool),
						Status:      domain.RouteStatus(p.Args["status"].(string)),
						ContainerID: int64(p.Args["container_id"].(int)),
					}
					if raw := p.Args["completed_since"].(string); raw != "" {
						since, err := parseSince(raw)
						if err != nil {
							return nil, fmt.Errorf("completed_since: %w", err)
						}
						q.CompletedSince = &since
					}
					return deps.Routes.List(p.Context, q)
				},
			},
			"containersNearby": &graphql.Field{
				Type:        graphql.NewList(containerType),
				Description: "Containers near a location, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 500.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Containers.FindNearby(p.Context,
						p.Args["lat"].(float64), p.Args["lon"].(float64),
						p.Args["radius"].(float64), p.Args["limit"].(int))
				},
			},
			"alerts": &graphql.Field{
				Type:        graphql.NewList(alertType),
				Description: "Alerts by priority",
				Args: graphql.FieldConfigArgument{
					"include_resolved": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Alerts.List(p.Context, p.Args["include_resolved"].(bool))
				},
			},
			"stats": &graphql.Field{
				Type:        statsType,
				Description: "Dashboard totals",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Containers.Stats(p.Context)
				},
			},
			"withinServiceArea": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Whether a coordinate lies inside the municipality",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					return deps.Geofence.IsWithinServiceArea(p.Context, pt), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// Programming error in the schema definition
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
