package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/FOX2920/sf-api/internal/localstore"
	"github.com/FOX2920/sf-api/internal/render"
	"github.com/FOX2920/sf-api/internal/repository"
	"github.com/FOX2920/sf-api/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// shipmentRequest is the POST body for generation endpoints.
type shipmentRequest struct {
	ShipmentID string `json:"shipment_id"`
}

// generateResponse wraps a generation result in the success envelope.
type generateResponse struct {
	Status  string                  `json:"status"`
	Message string                  `json:"message"`
	Data    *service.GenerateResult `json:"data"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay thin; all generation logic lives in the service.
func RegisterRoutes(app *fiber.App, gen service.GeneratorService, picklists repository.PicklistSource, local *localstore.Store, renderer *render.Renderer) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Service summary
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Shipment Document API",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"GET /health":                                 "Health check (verifies CRM connectivity)",
				"GET /generate-packing-list":                  "Generate packing list (shipment_id query parameter)",
				"POST /generate-packing-list":                 "Generate packing list (shipment_id in request body)",
				"GET /generate-invoice/{shipment_id}":         "Generate invoice for a shipment",
				"GET /generate-combined-export/{shipment_id}": "Generate combined packing list and invoice workbook",
				"GET /download/{file_name}":                   "Download a generated file",
			},
		})
	})

	// Liveness probe: process is up, no dependencies consulted
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Health check verifies the two things generation needs: the template
	// files and a working CRM session (exercised with a cheap describe call).
	app.Get("/health", func(c *fiber.Ctx) error {
		if missing := renderer.MissingTemplates(); len(missing) > 0 {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "document templates missing")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		freight, err := picklists.PicklistValues(ctx, "Shipment__c", "Freight__c")
		if err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "CRM unavailable")
		}

		dir, loc := local.Resolve()
		return c.JSON(fiber.Map{
			"status":               "healthy",
			"salesforce_connected": true,
			"freight_options":      freight,
			"local_storage":        loc.String(),
			"local_storage_dir":    dir,
			"timestamp":            time.Now().Format(time.RFC3339),
		})
	})

	generatePackingList := func(c *fiber.Ctx, shipmentID string) error {
		if shipmentID == "" {
			return writeError(c, fiber.StatusBadRequest, "SHIPMENT_ID_REQUIRED", "shipment_id is required")
		}
		res, err := gen.GeneratePackingList(c.UserContext(), shipmentID)
		if err != nil {
			return writeGenerateError(c, err)
		}
		return c.JSON(generateResponse{
			Status:  "success",
			Message: "Packing list generated successfully",
			Data:    res,
		})
	}

	// GET variant for manual testing, POST for integrations
	app.Get("/generate-packing-list", func(c *fiber.Ctx) error {
		return generatePackingList(c, c.Query("shipment_id"))
	})
	app.Post("/generate-packing-list", func(c *fiber.Ctx) error {
		var req shipmentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be JSON with shipment_id")
		}
		return generatePackingList(c, req.ShipmentID)
	})

	app.Get("/generate-invoice/:shipment_id", func(c *fiber.Ctx) error {
		res, err := gen.GenerateInvoice(c.UserContext(), c.Params("shipment_id"))
		if err != nil {
			return writeGenerateError(c, err)
		}
		return c.JSON(generateResponse{
			Status:  "success",
			Message: "Invoice generated successfully",
			Data:    res,
		})
	})

	app.Get("/generate-combined-export/:shipment_id", func(c *fiber.Ctx) error {
		res, err := gen.GenerateCombinedExport(c.UserContext(), c.Params("shipment_id"))
		if err != nil {
			return writeGenerateError(c, err)
		}
		return c.JSON(generateResponse{
			Status:  "success",
			Message: "Combined export generated successfully",
			Data:    res,
		})
	})

	app.Get("/download/:file_name", func(c *fiber.Ctx) error {
		fileName := c.Params("file_name")
		data, err := local.Retrieve(fileName)
		if err != nil {
			return writeDownloadError(c, err)
		}
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
		c.Set(fiber.HeaderContentType, xlsxContentType)
		return c.Send(data)
	})
}
