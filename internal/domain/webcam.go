package domain

import "time"

// Webcam providers.
const (
	WebcamProviderWindy = "windy"
	WebcamProviderIPCam = "ipcamlive"
)

// WebcamCapture is one webcam observation: provider metadata plus the
// resolved preview image. Preview holds the raw bytes between fetch and
// persist; after storage only PreviewPath survives (image bytes live on
// disk, not in the database).
type WebcamCapture struct {
	ID      int64
	Created time.Time

	Provider  string
	WebcamRef string // provider-side id or alias

	Title         string
	ViewCount     int
	Status        string
	LastUpdatedOn string

	PreviewPath string
	Preview     []byte `json:"-"`
}
