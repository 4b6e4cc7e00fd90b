// Package worker consumes processing requests, runs the named tool and
// publishes a completion carrying the output location.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/filemill/internal/blobstore"
	"github.com/dmitrijs2005/filemill/internal/common"
	"github.com/dmitrijs2005/filemill/internal/logging"
	"github.com/dmitrijs2005/filemill/internal/processing"
	"github.com/dmitrijs2005/filemill/internal/tools"
)

// Worker pulls requests off the request protocol, transforms the file
// and reports through the completion protocol. Requests are acked only
// after the completion is enqueued, so a crash mid-processing results
// in redelivery rather than loss.
type Worker struct {
	requests    *processing.Protocol
	completions *processing.Protocol
	files       blobstore.Store
	outputs     blobstore.Store
	registry    *tools.Registry
	logger      logging.Logger
}

func New(requests, completions *processing.Protocol, files, outputs blobstore.Store,
	registry *tools.Registry, logger logging.Logger) *Worker {
	return &Worker{
		requests:    requests,
		completions: completions,
		files:       files,
		outputs:     outputs,
		registry:    registry,
		logger:      logger,
	}
}

// Run processes requests until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, ack, err := w.requests.ReceiveBlocking(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if err := w.process(ctx, msg); err != nil {
			if errors.Is(err, common.ErrToolNotFound) {
				// Misrouted request: no amount of redelivery will help,
				// park it and move on without a completion.
				w.logger.Warn(ctx, "unknown tool, dead-lettering request",
					"requestId", msg.RequestID, "tool", msg.ToolName)
				if dlErr := w.requests.DeadLetter(ctx, msg); dlErr != nil {
					w.logger.Error(ctx, "dead-lettering failed", "error", dlErr)
					continue
				}
				if err := ack(ctx); err != nil {
					w.logger.Error(ctx, "ack failed", "error", err)
				}
				continue
			}
			// Leave unacked so the visibility timeout redelivers it.
			w.logger.Error(ctx, "processing failed, leaving for redelivery",
				"requestId", msg.RequestID, "error", err)
			continue
		}

		if err := ack(ctx); err != nil {
			w.logger.Error(ctx, "ack failed", "requestId", msg.RequestID, "error", err)
		}
	}
}

func (w *Worker) process(ctx context.Context, msg *processing.Message) error {
	tool, err := w.registry.Get(msg.ToolName)
	if err != nil {
		return err
	}

	key, err := w.files.ParseKey(msg.FileURI)
	if err != nil {
		return fmt.Errorf("resolving file uri %q: %w", msg.FileURI, err)
	}

	content, contentType, err := w.files.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("downloading %q: %w", key, err)
	}
	if msg.ContentType != "" {
		contentType = msg.ContentType
	}

	output, outputType, err := tool.ProcessFile(ctx, content, contentType)
	if err != nil {
		return fmt.Errorf("tool %q: %w", msg.ToolName, err)
	}

	outputKey := outputKeyFor(key, msg.RequestID)
	outputURI, err := w.outputs.Put(ctx, outputKey, outputType, output)
	if err != nil {
		return fmt.Errorf("uploading output %q: %w", outputKey, err)
	}

	completion := &processing.Message{
		RequestID:   msg.RequestID,
		FileURI:     outputURI,
		ContentType: outputType,
		ToolName:    msg.ToolName,
	}
	if err := w.completions.Enqueue(ctx, completion); err != nil {
		return fmt.Errorf("enqueueing completion: %w", err)
	}

	w.logger.Info(ctx, "request processed",
		"requestId", msg.RequestID, "tool", msg.ToolName, "output", outputKey)
	return nil
}

// outputKeyFor keeps the owner segment of the input key and prefixes
// the file name with the request id, so repeated runs over the same
// file never collide.
func outputKeyFor(inputKey, requestID string) string {
	owner, name, found := strings.Cut(inputKey, "/")
	if !found {
		return requestID + "-" + inputKey
	}
	return owner + "/" + requestID + "-" + name
}
