package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"rag-chatbot-be/internal/dto"
	"rag-chatbot-be/pkg/embedding"
	"rag-chatbot-be/pkg/ingest"
)

// ErrorHandlerMiddleware translates domain errors into HTTP status codes so
// controllers can simply return errors from services.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		var notFound *dto.NotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(404, notFound.Error()))
		}

		var validation *dto.ValidationError
		if errors.As(err, &validation) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(400, validation.Error()))
		}

		var unauthorized *dto.UnauthorizedError
		if errors.As(err, &unauthorized) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, unauthorized.Error()))
		}

		var unsupported *dto.UnsupportedFileTypeError
		if errors.As(err, &unsupported) {
			return ctx.Status(fiber.StatusUnsupportedMediaType).JSON(ErrorResponse(415, unsupported.Error()))
		}

		var extraction *dto.ExtractionFailedError
		if errors.As(err, &extraction) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(422, extraction.Error()))
		}

		var rateLimited *dto.RateLimitedError
		if errors.As(err, &rateLimited) {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse(429, rateLimited.Error()))
		}

		var upstream *dto.UpstreamError
		if errors.As(err, &upstream) {
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(502, upstream.Error()))
		}

		// Provider-level errors that escaped service wrapping.
		if errors.Is(err, embedding.ErrRateLimited) {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse(429, err.Error()))
		}
		if errors.Is(err, ingest.ErrUnsupportedFileType) {
			return ctx.Status(fiber.StatusUnsupportedMediaType).JSON(ErrorResponse(415, err.Error()))
		}
		if errors.Is(err, ingest.ErrExtractionFailed) {
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(422, err.Error()))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(500, err.Error()))
	}
}
