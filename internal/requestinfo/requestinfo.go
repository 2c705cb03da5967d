//
//  internal/requestinfo/requestinfo.go
//
//  Per-request client metadata for the access log: client IP, optional
//  GeoLite2 country and city, and a user-agent fingerprint.  The struct is
//  inert (plain strings and a timestamp), so it is safe to log or
//  JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// Info describes the caller of one API request.
//
// Example (Chrome on macOS):
//
//	Browser   "BrowserChrome"
//	Version   "125.0.6422"
//	OS        "OSMacOSX"
//	Device    "Desktop"
//	IsBot     false
type Info struct {
	IP        string
	Country   string // ISO code, empty without a GeoIP database
	City      string
	Browser   string
	Version   string
	OS        string
	Device    string // "Desktop", "Mobile", "Tablet", or "Other"
	IsBot     bool
	Timestamp time.Time
}

//
//  -----------------------------
//  Package-level state
//  -----------------------------
//

// geoReader is a MaxMind handle.  Readers are safe for concurrent reads.
var geoReader atomic.Pointer[geoip2.Reader]

// InitGeo opens the GeoLite2-City database at path.  An empty path leaves
// lookups disabled and is not an error.
func InitGeo(path string) error {
	if path == "" {
		return nil
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return fmt.Errorf("requestinfo: open GeoLite2 DB: %w", err)
	}
	if old := geoReader.Swap(r); old != nil {
		old.Close()
	}
	return nil
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer stored by Middleware, or nil if the
// middleware has not run.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

// NewContext returns ctx carrying info.
func NewContext(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// parseUA fills the user-agent fields of info.
func parseUA(info *Info, raw string) {
	ua := surfer.Parse(raw)

	info.Browser = ua.Browser.Name.String()
	info.Version = versionToString(ua.Browser.Version)
	info.OS = ua.OS.Name.String()
	info.IsBot = ua.IsBot()

	switch ua.DeviceType {
	case surfer.DeviceComputer:
		info.Device = "Desktop"
	case surfer.DeviceTablet:
		info.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}
}

// versionToString renders a version in dotted form while trimming trailing
// zeros, e.g. 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	switch {
	case v.Major == 0 && v.Minor == 0 && v.Patch == 0:
		return ""
	case v.Patch != 0:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	case v.Minor != 0:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	default:
		return strconv.Itoa(v.Major)
	}
}

// lookupGeo fills Country and City when a database is loaded.
func lookupGeo(info *Info, ip net.IP) {
	r := geoReader.Load()
	if r == nil || ip == nil {
		return
	}
	rec, err := r.City(ip)
	if err != nil {
		return
	}
	info.Country = rec.Country.IsoCode
	info.City = rec.City.Names["en"]
}
