package domain

import (
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// DaylightGuard refuses snapshot runs between sunset and sunrise at a
// reference location. Surf assessment outside daylight is meaningless
// (webcam frames are black), but this is scheduling policy: callers invoke
// Check before assembly, and operational commands may bypass it.
type DaylightGuard struct {
	Lat float64
	Lon float64
}

// Check returns ErrOutsideDaylight if now falls outside the reference
// location's daylight window for that date.
func (g DaylightGuard) Check(now time.Time) error {
	rise, set := sunrise.SunriseSunset(g.Lat, g.Lon, now.Year(), now.Month(), now.Day())
	if now.Before(rise) || now.After(set) {
		return fmt.Errorf("%w: sunrise=%s sunset=%s now=%s",
			ErrOutsideDaylight,
			rise.Format(time.RFC3339), set.Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	}
	return nil
}
