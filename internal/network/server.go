package network

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/leengari/parquery/internal/domain/errors"
	"github.com/leengari/parquery/internal/engine"
	"github.com/leengari/parquery/internal/query/payload"
)

// defaultRequestTimeout bounds one tool call; long scans check it
// between row groups.
const defaultRequestTimeout = 30 * time.Second

// Request is one tool invocation. Tool selects the entry point; the
// remaining fields mirror the tool parameters and are ignored by tools
// that do not use them.
type Request struct {
	Tool       string   `json:"tool"`
	FilePath   string   `json:"file_path"`
	StartRow   *int64   `json:"start_row,omitempty"`
	EndRow     *int64   `json:"end_row,omitempty"`
	Columns    []string `json:"columns,omitempty"`
	FilterJSON string   `json:"filter_json,omitempty"`
	ColumnName string   `json:"column_name,omitempty"`
	StartIndex *int64   `json:"start_index,omitempty"`
	MaxItems   *int64   `json:"max_items,omitempty"`
	Operation  string   `json:"operation,omitempty"`
	TimeoutMs  int64    `json:"timeout_ms,omitempty"`
}

// ErrorPayload is the structured error envelope. The engine's kind
// discriminator is forwarded verbatim, never re-wrapped.
type ErrorPayload struct {
	Status     string                   `json:"status"`
	Kind       string                   `json:"kind"`
	Message    string                   `json:"message"`
	Column     string                   `json:"column,omitempty"`
	Suggestion string                   `json:"suggestion,omitempty"`
	SizeBudget *payload.SizeBudgetError `json:"size_budget,omitempty"`
}

type successPayload struct {
	Status string      `json:"status"`
	Result interface{} `json:"result"`
}

// Start starts the TCP query server on the given port and blocks.
func Start(port int, eng *engine.Engine, logger *slog.Logger) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		logger.Error("Failed to bind to port", "port", port, "error", err)
		return err
	}
	defer listener.Close()

	logger.Info("Running on port", "port", port)
	return Serve(listener, eng, logger)
}

// Serve accepts connections on an existing listener; split from Start so
// tests can use an ephemeral port.
func Serve(listener net.Listener, eng *engine.Engine, logger *slog.Logger) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if stderrors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Error("Failed to accept connection", "error", err)
			continue
		}
		go handleConnection(conn, eng, logger)
	}
}

func handleConnection(conn net.Conn, eng *engine.Engine, logger *slog.Logger) {
	defer conn.Close()

	connID := uuid.NewString()
	log := logger.With("conn_id", connID)

	// Use Decoder instead of Scanner for network streams
	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if err == io.EOF {
				return // connection closed gracefully
			}
			log.Error("decode error", "error", err)
			_ = encoder.Encode(&ErrorPayload{
				Status:  "error",
				Kind:    string(errors.KindFilterSyntax),
				Message: fmt.Sprintf("invalid request format: %v", err),
			})
			return
		}

		result, err := dispatch(&req, eng)
		if err != nil {
			log.Debug("tool failed", "tool", req.Tool, "error", err)
			if encodeErr := encoder.Encode(toErrorPayload(err)); encodeErr != nil {
				log.Error("encode error", "error", encodeErr)
				return
			}
			continue
		}

		if err := encoder.Encode(&successPayload{Status: "success", Result: result}); err != nil {
			log.Error("encode error", "error", err)
			return
		}
	}
}

func dispatch(req *Request, eng *engine.Engine) (interface{}, error) {
	timeout := defaultRequestTimeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	switch req.Tool {
	case "summarize":
		return eng.Summarize(ctx, req.FilePath)

	case "read_slice":
		var start, end int64
		if req.StartRow != nil {
			start = *req.StartRow
		}
		if req.EndRow != nil {
			end = *req.EndRow
		}
		return eng.ReadSlice(ctx, req.FilePath, start, end, req.Columns, req.FilterJSON)

	case "get_column_preview":
		start := int64(0)
		if req.StartIndex != nil {
			start = *req.StartIndex
		}
		maxItems := int64(100)
		if req.MaxItems != nil {
			maxItems = *req.MaxItems
		}
		return eng.GetColumnPreview(ctx, req.FilePath, req.ColumnName, start, maxItems)

	case "aggregate_column":
		return eng.AggregateColumn(ctx, req.FilePath, req.ColumnName, req.Operation,
			req.FilterJSON, req.StartRow, req.EndRow)

	default:
		return nil, &errors.QueryError{
			Kind:       errors.KindUnsupportedOperation,
			Message:    fmt.Sprintf("unknown tool %q", req.Tool),
			Suggestion: "use summarize, read_slice, get_column_preview or aggregate_column",
		}
	}
}

// toErrorPayload maps engine errors onto the wire envelope, preserving
// the kind discriminator.
func toErrorPayload(err error) *ErrorPayload {
	var budgetErr *payload.SizeBudgetError
	if stderrors.As(err, &budgetErr) {
		return &ErrorPayload{
			Status:     "error",
			Kind:       string(errors.KindSizeBudgetExceeded),
			Message:    budgetErr.Error(),
			SizeBudget: budgetErr,
		}
	}

	var queryErr *errors.QueryError
	if stderrors.As(err, &queryErr) {
		return &ErrorPayload{
			Status:     "error",
			Kind:       string(queryErr.Kind),
			Message:    queryErr.Message,
			Column:     queryErr.Column,
			Suggestion: queryErr.Suggestion,
		}
	}

	return &ErrorPayload{
		Status:  "error",
		Kind:    string(errors.KindIOTransient),
		Message: err.Error(),
	}
}
