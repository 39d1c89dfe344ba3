package orchestrator

import (
	"github.com/photolink/coappear/pkg/events"
	"github.com/photolink/coappear/pkg/oracle"
	"github.com/photolink/coappear/pkg/verify"
)

// eventSink is the narrow slice of events.RunLog the orchestrator needs,
// declared here so tests can substitute a recording fake.
type eventSink interface {
	Publish(typ events.Type, message string, data events.Data) events.Event
}

func toVerifyImage(img oracle.ImageResult) verify.Image {
	return verify.Image{ImageURL: img.ImageURL, ThumbnailURL: img.ThumbnailURL, ContextURL: img.ContextURL, Title: img.Title}
}

func imageResultData(img oracle.ImageResult, res verify.Result) events.Data {
	return events.Data{
		ImageURL:    img.ImageURL,
		Status:      string(res.Status),
		Reason:      res.Reason,
		Celebrities: res.Celebrities,
	}
}
