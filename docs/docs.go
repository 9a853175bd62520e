// Package docs holds the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/admin/reconcile": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Lists recent checkout sessions and activates every pending listing that was paid for.",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Run a reconciliation sweep",
                "parameters": [
                    {"type": "string", "description": "Look-back window, e.g. 24h", "name": "window", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ReconcileResponse"}},
                    "400": {"description": "Invalid window", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Payment provider failure", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/categories": {
            "get": {
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "List categories",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CategoriesSuccessResponse"}}
                }
            }
        },
        "/checkout": {
            "post": {
                "description": "Stores the listing as pending and creates a payment session whose client reference points back at it.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["checkout"],
                "summary": "Start a premium checkout",
                "parameters": [
                    {"description": "Premium listing", "name": "listing", "in": "body", "required": true, "schema": {"$ref": "#/definitions/intake.Payload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CheckoutSuccessResponse"}},
                    "400": {"description": "Malformed JSON", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Missing or invalid fields", "schema": {"$ref": "#/definitions/handlers.ValidationErrorResponse"}},
                    "502": {"description": "Store or payment provider failure", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/listings": {
            "get": {
                "description": "Active, unexpired listings. Premium listings come first, then the most recently posted.",
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Browse the job feed",
                "parameters": [
                    {"type": "string", "description": "Category, or all", "name": "category", "in": "query"},
                    {"type": "string", "description": "Case-insensitive match on title, company or location", "name": "q", "in": "query"},
                    {"type": "string", "description": "Translation locale (en, zh, ru, es, de)", "name": "lang", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.FeedSuccessResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Free listings are published immediately. Premium listings are stored as pending and the response carries the payment page to redirect to.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Post a job listing",
                "parameters": [
                    {"description": "Listing to post", "name": "listing", "in": "body", "required": true, "schema": {"$ref": "#/definitions/intake.Payload"}}
                ],
                "responses": {
                    "200": {"description": "Premium listing pending payment", "schema": {"$ref": "#/definitions/handlers.CheckoutSuccessResponse"}},
                    "201": {"description": "Free listing published", "schema": {"$ref": "#/definitions/handlers.ListingSuccessResponse"}},
                    "400": {"description": "Malformed JSON", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Missing or invalid fields", "schema": {"$ref": "#/definitions/handlers.ValidationErrorResponse"}},
                    "502": {"description": "Store or payment provider failure", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/listings/{id}": {
            "get": {
                "description": "Returns the listing while it is visible on the board.",
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Get a listing",
                "parameters": [
                    {"type": "string", "description": "Listing ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Translation locale", "name": "lang", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListingSuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/listings/{id}/apply": {
            "get": {
                "description": "Redirects to a pre-filled compose window for the listing's contact address.",
                "tags": ["listings"],
                "summary": "Apply by email",
                "parameters": [
                    {"type": "string", "description": "Listing ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "gmail, outlook, yahoo or default", "name": "client", "in": "query"}
                ],
                "responses": {
                    "302": {"description": "Redirect to the compose URL"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/webhooks/stripe": {
            "post": {
                "description": "Verifies the delivery signature and activates the listing a paid checkout session points to. Any non-2xx answer makes the provider redeliver.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Payment provider webhook",
                "parameters": [
                    {"type": "string", "description": "Webhook signature", "name": "Stripe-Signature", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WebhookResponse"}},
                    "400": {"description": "Signature verification failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Store failure, delivery will be retried", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "checkout.Result": {
            "type": "object",
            "properties": {
                "listingId": {"type": "string"},
                "redirectUrl": {"type": "string"},
                "reference": {"type": "string"},
                "sessionId": {"type": "string"}
            }
        },
        "handlers.CategoriesSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string"}
            }
        },
        "handlers.CheckoutSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/checkout.Result"},
                "status": {"type": "string"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handlers.FeedItem": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "company": {"type": "string"},
                "created_at": {"type": "string"},
                "daysLeft": {"type": "integer"},
                "description": {"type": "string"},
                "email": {"type": "string"},
                "expires_at": {"type": "string"},
                "id": {"type": "string"},
                "is_active": {"type": "boolean"},
                "location": {"type": "string"},
                "payment_status": {"type": "string"},
                "phone": {"type": "string"},
                "posted_at": {"type": "string"},
                "salary": {"type": "string"},
                "source": {"type": "string"},
                "title": {"type": "string"},
                "type": {"type": "string"},
                "updated_at": {"type": "string"},
                "url": {"type": "string"}
            }
        },
        "handlers.FeedSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/handlers.FeedItem"}},
                "status": {"type": "string"}
            }
        },
        "handlers.ListingSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/handlers.FeedItem"},
                "status": {"type": "string"}
            }
        },
        "handlers.ReconcileResponse": {
            "type": "object",
            "properties": {
                "completedSessions": {"type": "integer"},
                "processedJobs": {"type": "integer"},
                "success": {"type": "boolean"},
                "summary": {"$ref": "#/definitions/reconcile.Summary"},
                "totalSessions": {"type": "integer"},
                "uniquePaidJobs": {"type": "integer"}
            }
        },
        "handlers.ValidationErrorResponse": {
            "type": "object",
            "properties": {
                "invalidFields": {"type": "array", "items": {"type": "string"}},
                "message": {"type": "string"},
                "missingFields": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string"}
            }
        },
        "handlers.WebhookResponse": {
            "type": "object",
            "properties": {
                "activated": {"type": "boolean"},
                "eventType": {"type": "string"},
                "listingId": {"type": "string"},
                "received": {"type": "boolean"}
            }
        },
        "intake.Payload": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "company": {"type": "string"},
                "description": {"type": "string"},
                "email": {"type": "string"},
                "location": {"type": "string"},
                "phone": {"type": "string"},
                "salary": {"type": "string"},
                "title": {"type": "string"},
                "translations": {"type": "object", "additionalProperties": {"$ref": "#/definitions/intake.Translation"}},
                "type": {"type": "string"}
            }
        },
        "intake.Translation": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "title": {"type": "string"}
            }
        },
        "reconcile.Summary": {
            "type": "object",
            "properties": {
                "activated": {"type": "integer"},
                "failed": {"type": "integer"},
                "matched": {"type": "integer"},
                "paid": {"type": "integer"},
                "scanned": {"type": "integer"},
                "skipped": {"type": "integer"},
                "unique": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Aggelies Ergasias API",
	Description:      "Job board: free and premium listings, checkout and payment reconciliation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
