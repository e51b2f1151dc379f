// Package resolver provides LocationResolver and StatusResolver
// implementations for the dispatcher: an offline gazetteer of Pakistani
// cities and emergency facilities, a TTL cache in front of any location
// resolver, and an expiring in-memory status store.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"rapidresq/resq/pkg/dispatch"
	"rapidresq/resq/pkg/ecl/ast"
)

// ErrOutOfCoverage is returned for search centres outside Pakistan.
var ErrOutOfCoverage = errors.New("location outside coverage area")

const earthRadiusKm = 6371

// Coverage bounds (Pakistan).
const (
	minLat, maxLat = 23.5, 37.5
	minLon, maxLon = 60.5, 77.5
)

// city is a gazetteer entry.
type city struct {
	name string
	at   ast.Coordinates
}

var cities = []city{
	{"lahore", ast.Coordinates{Latitude: 31.5204, Longitude: 74.3587}},
	{"karachi", ast.Coordinates{Latitude: 24.8607, Longitude: 67.0011}},
	{"islamabad", ast.Coordinates{Latitude: 33.6844, Longitude: 73.0479}},
	{"rawalpindi", ast.Coordinates{Latitude: 33.5651, Longitude: 73.0169}},
	{"peshawar", ast.Coordinates{Latitude: 34.0151, Longitude: 71.5249}},
	{"quetta", ast.Coordinates{Latitude: 30.1798, Longitude: 66.9750}},
	{"multan", ast.Coordinates{Latitude: 30.1575, Longitude: 71.5249}},
	{"faisalabad", ast.Coordinates{Latitude: 31.4504, Longitude: 73.1350}},
	{"hyderabad", ast.Coordinates{Latitude: 25.3960, Longitude: 68.3578}},
	{"sialkot", ast.Coordinates{Latitude: 32.4945, Longitude: 74.5229}},
}

var facilities = []dispatch.PointOfInterest{
	{ID: "pims", Name: "Pakistan Institute of Medical Sciences (PIMS)", Amenity: "hospital", Latitude: 33.6693, Longitude: 73.0762, Phone: "+92-51-9260601", Address: "G-8/3, Islamabad"},
	{ID: "shifa", Name: "Shifa International Hospital", Amenity: "hospital", Latitude: 33.6566, Longitude: 73.0645, Phone: "+92-51-8464646", Address: "Sector H-8/4, Islamabad"},
	{ID: "afic", Name: "Armed Forces Institute of Cardiology", Amenity: "hospital", Latitude: 33.6007, Longitude: 73.0679, Phone: "+92-51-9271858", Address: "Rawalpindi"},
	{ID: "hfh", Name: "Holy Family Hospital", Amenity: "hospital", Latitude: 33.5939, Longitude: 73.0479, Phone: "+92-51-5560394", Address: "Rawalpindi"},
	{ID: "cmh-rwp", Name: "Combined Military Hospital (CMH)", Amenity: "hospital", Latitude: 33.5951, Longitude: 73.0560, Phone: "+92-51-9270463", Address: "Rawalpindi"},
	{ID: "bbh", Name: "Benazir Bhutto Hospital", Amenity: "hospital", Latitude: 33.5978, Longitude: 73.0444, Phone: "+92-51-9290301", Address: "Rawalpindi"},
	{ID: "polyclinic", Name: "Poly Clinic Hospital", Amenity: "hospital", Latitude: 33.6944, Longitude: 73.0638, Phone: "+92-51-9218944", Address: "G-6/2, Islamabad"},
	{ID: "capital-cda", Name: "Capital Hospital CDA", Amenity: "hospital", Latitude: 33.6889, Longitude: 73.0583, Phone: "+92-51-9252371", Address: "G-6/4, Islamabad"},
	{ID: "mayo", Name: "Mayo Hospital", Amenity: "hospital", Latitude: 31.5755, Longitude: 74.3165, Address: "Anarkali, Lahore"},
	{ID: "services-lhr", Name: "Services Hospital", Amenity: "hospital", Latitude: 31.5393, Longitude: 74.3364, Address: "Jail Road, Lahore"},
	{ID: "jinnah-lhr", Name: "Jinnah Hospital", Amenity: "hospital", Latitude: 31.4848, Longitude: 74.2978, Address: "Allama Shabbir Ahmad Usmani Road, Lahore"},
	{ID: "jpmc", Name: "Jinnah Postgraduate Medical Centre", Amenity: "hospital", Latitude: 24.8515, Longitude: 67.0441, Address: "Rafiqui Shaheed Road, Karachi"},
	{ID: "akuh", Name: "Aga Khan University Hospital", Amenity: "hospital", Latitude: 24.8920, Longitude: 67.0747, Address: "Stadium Road, Karachi"},
}

// hotlines are nationwide services reachable from anywhere in coverage.
var hotlines = []dispatch.PointOfInterest{
	{ID: "police-15", Name: "Pakistan Police Emergency", Amenity: "police", Latitude: 33.6362, Longitude: 72.9837, Phone: "15", Address: "Nationwide"},
	{ID: "rescue-1122", Name: "Rescue 1122", Amenity: "ambulance_station", Latitude: 33.6362, Longitude: 72.9837, Phone: "1122", Address: "Emergency Medical Services"},
	{ID: "fire-16", Name: "Fire Brigade", Amenity: "fire_station", Latitude: 33.6362, Longitude: 72.9837, Phone: "16", Address: "Fire Emergency"},
	{ID: "motorway-130", Name: "Motorway Police", Amenity: "police", Latitude: 33.6362, Longitude: 72.9837, Phone: "130", Address: "Highway Emergency"},
}

// Static resolves locations from a built-in gazetteer. It never performs I/O.
type Static struct{}

// NewStatic returns the offline resolver.
func NewStatic() *Static {
	return &Static{}
}

// Geocode finds the first known city mentioned in name.
func (s *Static) Geocode(_ context.Context, name string) (ast.Coordinates, error) {
	lower := strings.ToLower(name)
	for _, c := range cities {
		if strings.Contains(lower, c.name) {
			return c.at, nil
		}
	}
	return ast.Coordinates{}, fmt.Errorf("geocode %q: %w", name, dispatch.ErrNotFound)
}

// Nearby returns facilities of q.Amenity within q.RadiusMeters of q.Center,
// nearest first, followed by matching nationwide hotlines.
func (s *Static) Nearby(_ context.Context, q dispatch.NearbyQuery) ([]dispatch.PointOfInterest, error) {
	if !InCoverage(q.Center) {
		return nil, fmt.Errorf("nearby %s at %s: %w", q.Amenity, q.Center, ErrOutOfCoverage)
	}

	var out []dispatch.PointOfInterest
	for _, f := range facilities {
		if f.Amenity != q.Amenity {
			continue
		}
		d := Distance(q.Center, ast.Coordinates{Latitude: f.Latitude, Longitude: f.Longitude})
		if q.RadiusMeters > 0 && d > float64(q.RadiusMeters) {
			continue
		}
		f.DistanceMeters = math.Round(d)
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceMeters < out[j].DistanceMeters
	})

	for _, h := range hotlines {
		if h.Amenity == q.Amenity {
			h.DistanceMeters = math.Round(Distance(q.Center, ast.Coordinates{Latitude: h.Latitude, Longitude: h.Longitude}))
			out = append(out, h)
		}
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// FallbackHospitals returns the hospitals offered when a live query fails.
func FallbackHospitals() []dispatch.PointOfInterest {
	var out []dispatch.PointOfInterest
	for _, f := range facilities {
		if f.Amenity == "hospital" {
			out = append(out, f)
		}
	}
	return out
}

// Hotlines returns the nationwide emergency services.
func Hotlines() []dispatch.PointOfInterest {
	return append([]dispatch.PointOfInterest(nil), hotlines...)
}

// InCoverage reports whether c lies inside the served area.
func InCoverage(c ast.Coordinates) bool {
	return c.Latitude >= minLat && c.Latitude <= maxLat &&
		c.Longitude >= minLon && c.Longitude <= maxLon
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b ast.Coordinates) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h)) * 1000
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
