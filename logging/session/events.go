package session

import (
	"context"

	"orbduel/logging"
)

const (
	RunStartedEventType     logging.EventType = "session.run_started"
	ExportProgressEventType logging.EventType = "session.export_progress"
	ExportFinishedEventType logging.EventType = "session.export_finished"
	ViewerJoinedEventType   logging.EventType = "session.viewer_joined"
	ViewerLeftEventType     logging.EventType = "session.viewer_left"
)

type RunStartedPayload struct {
	RunID string `json:"runId,omitempty"`
	Title string `json:"title"`
	Seed  int64  `json:"seed"`
	Mode  string `json:"mode"`
}

func RunStarted(ctx context.Context, pub logging.Publisher, runID, title string, seed int64, mode string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     RunStartedEventType,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPipeline,
		Payload:  RunStartedPayload{RunID: runID, Title: title, Seed: seed, Mode: mode},
	})
}

type ExportProgressPayload struct {
	Simulated float64 `json:"simulated"`
	Total     float64 `json:"total"`
}

func ExportProgress(ctx context.Context, pub logging.Publisher, tick uint64, simulated, total float64) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     ExportProgressEventType,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPipeline,
		Payload:  ExportProgressPayload{Simulated: simulated, Total: total},
	})
}

type ExportFinishedPayload struct {
	RunID   string  `json:"runId"`
	Frames  int     `json:"frames"`
	Seconds float64 `json:"seconds"`
	Video   string  `json:"video,omitempty"`
	Audio   string  `json:"audio,omitempty"`
	PeakDB  float64 `json:"peakDb"`
	RMSDB   float64 `json:"rmsDb"`
}

func ExportFinished(ctx context.Context, pub logging.Publisher, payload ExportFinishedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     ExportFinishedEventType,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPipeline,
		Payload:  payload,
	})
}

type ViewerPayload struct {
	RemoteAddr string `json:"remoteAddr"`
	Viewers    int    `json:"viewers"`
}

func ViewerJoined(ctx context.Context, pub logging.Publisher, remoteAddr string, viewers int) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     ViewerJoinedEventType,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPipeline,
		Payload:  ViewerPayload{RemoteAddr: remoteAddr, Viewers: viewers},
	})
}

func ViewerLeft(ctx context.Context, pub logging.Publisher, remoteAddr string, viewers int) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     ViewerLeftEventType,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryPipeline,
		Payload:  ViewerPayload{RemoteAddr: remoteAddr, Viewers: viewers},
	})
}
