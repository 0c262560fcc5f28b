// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {"get": {"summary": "Database liveness", "responses": {"200": {"description": "OK"}, "503": {"description": "database unavailable"}}}},
        "/players": {
            "get": {"summary": "List players", "parameters": [{"name": "search", "in": "query", "type": "string"}, {"name": "active", "in": "query", "type": "boolean"}], "responses": {"200": {"description": "OK"}}},
            "post": {"summary": "Register a player", "parameters": [{"name": "player", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePlayerInput"}}], "responses": {"201": {"description": "Created"}, "400": {"description": "validation failed"}}}
        },
        "/players/top": {"get": {"summary": "Players ranked by wins then participations", "parameters": [{"name": "limit", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/players/{playerID}": {
            "get": {"summary": "Get a player, or its statistics with stats=true", "parameters": [{"name": "playerID", "in": "path", "required": true, "type": "integer"}, {"name": "stats", "in": "query", "type": "boolean"}], "responses": {"200": {"description": "OK"}, "404": {"description": "not found"}}},
            "put": {"summary": "Update a player", "parameters": [{"name": "playerID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"summary": "Disable, or permanently delete, a player", "parameters": [{"name": "playerID", "in": "path", "required": true, "type": "integer"}, {"name": "permanent", "in": "query", "type": "boolean"}, {"name": "force", "in": "query", "type": "boolean"}], "responses": {"204": {"description": "No Content"}, "409": {"description": "player in use"}}}
        },
        "/players/{playerID}/enable": {"post": {"summary": "Re-enable a player", "parameters": [{"name": "playerID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/tournaments": {
            "get": {"summary": "List tournaments", "parameters": [{"name": "status", "in": "query", "type": "string", "enum": ["planned", "in_progress", "finished"]}, {"name": "upcoming", "in": "query", "type": "boolean"}], "responses": {"200": {"description": "OK"}}},
            "post": {"summary": "Create a planned tournament", "responses": {"201": {"description": "Created"}}}
        },
        "/tournaments/current": {"get": {"summary": "First tournament in progress", "responses": {"200": {"description": "OK"}, "404": {"description": "none in progress"}}}},
        "/tournaments/{tournamentID}": {
            "get": {"summary": "Get a tournament", "parameters": [{"name": "tournamentID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "put": {"summary": "Update a planned tournament", "parameters": [{"name": "tournamentID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "409": {"description": "tournament locked"}}},
            "delete": {"summary": "Delete a tournament", "parameters": [{"name": "tournamentID", "in": "path", "required": true, "type": "integer"}], "responses": {"204": {"description": "No Content"}}}
        },
        "/tournaments/{tournamentID}/participants": {
            "get": {"summary": "Participants by draw position", "parameters": [{"name": "tournamentID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "post": {"summary": "Register a player", "parameters": [{"name": "tournamentID", "in": "path", "required": true, "type": "integer"}], "responses": {"201": {"description": "Created"}, "409": {"description": "duplicate registration"}}}
        },
        "/tournaments/{tournamentID}/participants/{playerID}": {"delete": {"summary": "Unregister a player", "parameters": [{"name": "tournamentID", "in": "path", "required": true, "type": "integer"}, {"name": "playerID", "in": "path", "required": true, "type": "integer"}], "responses": {"204": {"description": "No Content"}}}},
        "/tournaments/{tournamentID}/start": {"post": {"summary": "Seed participants and build round 1", "parameters": [{"name": "tournamentID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "409": {"description": "not ready or not enough participants"}}}},
        "/tournaments/{tournamentID}/bracket": {"get": {"summary": "Bracket grouped by round", "parameters": [{"name": "tournamentID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/tournaments/{tournamentID}/matches": {"get": {"summary": "Matches of a tournament", "parameters": [{"name": "tournamentID", "in": "path", "required": true, "type": "integer"}, {"name": "round", "in": "query", "type": "integer"}, {"name": "status", "in": "query", "type": "string", "enum": ["waiting", "active", "finished"]}], "responses": {"200": {"description": "OK"}}}},
        "/tournaments/{tournamentID}/repechage": {"get": {"summary": "Eliminated players eligible for repêchage", "parameters": [{"name": "tournamentID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/matches/active": {"get": {"summary": "Active matches", "parameters": [{"name": "tournament_id", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/matches/{matchID}": {"get": {"summary": "Get a match with player details", "parameters": [{"name": "matchID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/matches/{matchID}/history": {"get": {"summary": "Score history in time order", "parameters": [{"name": "matchID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/matches/{matchID}/activate": {"post": {"summary": "Activate a waiting match", "parameters": [{"name": "matchID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "409": {"description": "invalid transition"}}}},
        "/matches/{matchID}/score": {"put": {"summary": "Record scores of an active match", "parameters": [{"name": "matchID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "422": {"description": "invalid score"}}}},
        "/matches/{matchID}/end": {"put": {"summary": "Finish a match and advance the winner", "parameters": [{"name": "matchID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "409": {"description": "match not active"}, "422": {"description": "invalid winner"}}}},
        "/matches/{matchID}/replace": {"post": {"summary": "Replace a player in a slot", "parameters": [{"name": "matchID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/matches/{matchID}/fill": {"post": {"summary": "Fill empty slots with a player", "parameters": [{"name": "matchID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}, "409": {"description": "no empty slot"}}}},
        "/matches/{matchID}/commands": {"post": {"summary": "Apply a typed match command", "parameters": [{"name": "matchID", "in": "path", "required": true, "type": "integer"}], "responses": {"200": {"description": "OK"}}}}
    },
    "definitions": {
        "CreatePlayerInput": {
            "type": "object",
            "required": ["first_name", "last_name"],
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "nickname": {"type": "string"},
                "skill_level": {"type": "string", "enum": ["beginner", "amateur", "intermediate", "semi_pro", "professional"]}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Dart Tournament API",
	Description:      "Single-elimination dart tournaments: players, brackets, matches and live display.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
