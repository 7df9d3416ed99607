package usecase

import (
	"time"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

// Catalog keys of user-facing strings.
const (
	MsgUploadSelectFile      = "upload.select_file"
	MsgUploadUnsupported     = "upload.unsupported_type"
	MsgUploadInFlight        = "upload.in_flight"
	MsgUploadSuccess         = "upload.success"
	MsgUploadServerError     = "upload.server_error"
	MsgUploadTransportError  = "upload.transport_error"
	MsgUploadTooLarge        = "upload.too_large"
	MsgTextEmpty             = "text.empty"
	MsgTextInvalidFontSize   = "text.invalid_font_size"
	MsgTextPrepared          = "text.prepared"
	MsgProcessNoInput        = "process.no_input"
	MsgProcessInFlight       = "process.in_flight"
	MsgProcessInvalidOptions = "process.invalid_options"
	MsgProcessSuccess        = "process.success"
	MsgProcessServerError    = "process.server_error"
	MsgProcessTransportError = "process.transport_error"
	MsgOrientationPortrait   = "orientation.portrait"
	MsgOrientationLandscape  = "orientation.landscape"
	MsgPreviewBanner         = "preview.banner"
	MsgPreviewTruncated      = "preview.truncated"
	MsgPreviewError          = "preview.error"
	MsgPreviewPage           = "preview.page"
)

// NopObserver discards workflow observations.
type NopObserver struct{}

func (NopObserver) ObserveUpload(string) {}
func (NopObserver) ObserveProcessing(domain.InputKind, string, time.Duration) {}
func (NopObserver) ObservePreview(string, int, time.Duration) {}

const (
	statusSucceeded = "succeeded"
	statusRejected  = "rejected"
	statusFailed    = "failed"
	statusCached    = "cached"
)
