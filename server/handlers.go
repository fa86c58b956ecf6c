package server

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gofiber/fiber/v3"
	"github.com/sicko7947/dynamotools"
)

type tableResponse struct {
	Table     string `json:"table"`
	Created   bool   `json:"created"`
	Status    string `json:"status,omitempty"`
	ItemCount int64  `json:"itemCount,omitempty"`
	Message   string `json:"message"`
}

type failedBatch struct {
	Batch       int    `json:"batch"`
	Requests    int    `json:"requests"`
	Unprocessed int    `json:"unprocessed"`
	Error       string `json:"error"`
}

type seedResponse struct {
	Table         string        `json:"table"`
	Items         int           `json:"items"`
	Batches       int           `json:"batches"`
	Written       int           `json:"written"`
	Transformed   int           `json:"transformed"`
	Skipped       int           `json:"skipped"`
	Unprocessed   int           `json:"unprocessed"`
	FailedBatches []failedBatch `json:"failedBatches,omitempty"`
	Error         string        `json:"error,omitempty"`
}

func newSeedResponse(result dynamotools.SeedResult, err error) seedResponse {
	resp := seedResponse{
		Table:       result.Table,
		Items:       result.Items,
		Batches:     result.Batches,
		Written:     result.Written,
		Transformed: result.Transformed,
		Skipped:     result.Skipped,
		Unprocessed: result.Unprocessed,
	}
	for _, f := range result.Failures {
		fb := failedBatch{Batch: f.Batch, Requests: f.Requests, Unprocessed: f.Unprocessed}
		if f.Err != nil {
			fb.Error = f.Err.Error()
		}
		resp.FailedBatches = append(resp.FailedBatches, fb)
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// errorStatus maps setup errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case dynamotools.HasCode(err, dynamotools.ErrCodeValidation),
		dynamotools.HasCode(err, dynamotools.ErrCodeDefinition),
		dynamotools.HasCode(err, dynamotools.ErrCodeFixture):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": s.service,
		"version": s.version,
	})
}

// tools resolves the :name parameter, writing the error response itself
func (s *Server) tools(c fiber.Ctx) (*dynamotools.Tools, error) {
	name := c.Params("name")
	tools, err := s.factory(name)
	if err != nil {
		s.logger.Warn().Err(err).Str("table", name).Msg("Rejected table request")
		return nil, c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return tools, nil
}

// handleCreateTable creates the table from the optional CreateTable request body,
// or from the built-in template when the body is empty
func (s *Server) handleCreateTable(c fiber.Ctx) error {
	tools, err := s.tools(c)
	if tools == nil {
		return err
	}

	deleteFirst := false
	if raw := c.Query("deleteFirst"); raw != "" {
		deleteFirst, err = strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "deleteFirst must be a boolean",
			})
		}
	}

	var custom *dynamodb.CreateTableInput
	if body := c.Body(); len(bytes.TrimSpace(body)) > 0 {
		custom, err = dynamotools.LoadCreateTableInput(bytes.NewReader(body), requestFormat(c))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid table definition: " + err.Error(),
			})
		}
	}

	desc, err := tools.CreateTable(c.Context(), deleteFirst, custom)
	if err != nil {
		s.logger.Error().Err(err).Str("table", tools.TableName()).Msg("Failed to create table")
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if desc == nil {
		return c.JSON(tableResponse{
			Table:   tools.TableName(),
			Created: false,
			Message: "Table was not created, it may already exist",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(tableResponse{
		Table:     aws.ToString(desc.TableName),
		Created:   true,
		Status:    string(desc.TableStatus),
		ItemCount: aws.ToInt64(desc.ItemCount),
		Message:   "Table created successfully",
	})
}

// handleDeleteTable deletes the table; a missing table is not an error
func (s *Server) handleDeleteTable(c fiber.Ctx) error {
	tools, err := s.tools(c)
	if tools == nil {
		return err
	}

	tools.DeleteTable(c.Context())

	return c.JSON(fiber.Map{
		"table":   tools.TableName(),
		"message": "Table deleted",
	})
}

// handleSeed seeds the body, a JSON array (or YAML sequence) of plain objects
func (s *Server) handleSeed(c fiber.Ctx) error {
	tools, err := s.tools(c)
	if tools == nil {
		return err
	}

	items, err := dynamotools.LoadItems(bytes.NewReader(c.Body()), requestFormat(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	result, err := tools.SeedData(c.Context(), items, s.plugin)
	if err != nil {
		s.logger.Error().Err(err).Str("table", tools.TableName()).Msg("Seeding finished with errors")

		status := fiber.StatusInternalServerError
		var seedErr *dynamotools.SeedError
		if errors.As(err, &seedErr) {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(newSeedResponse(result, err))
	}

	return c.JSON(newSeedResponse(result, nil))
}

func requestFormat(c fiber.Ctx) dynamotools.Format {
	if strings.Contains(strings.ToLower(c.Get(fiber.HeaderContentType)), "yaml") {
		return dynamotools.FormatYAML
	}
	return dynamotools.FormatJSON
}
