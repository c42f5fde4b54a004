package domain

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

// MOSMIX bundles are KML documents with a DWD point-forecast extension.
// Element lookups are namespace-qualified against these two namespaces.
const (
	kmlNS = "http://www.opengis.net/kml/2.2"
	dwdNS = "https://opendata.dwd.de/weather/lib/pointforecast_dwd_extension_V1_0.xsd"
)

// ForecastDocument is one parsed MOSMIX bundle: document-level metadata, the
// shared timestep axis, and per-station forecast series aligned to it.
type ForecastDocument struct {
	ProductID         string
	GeneratingProcess string
	DateIssued        time.Time
	Timesteps         []time.Time
	Stations          []StationForecast
}

// StationForecast holds one placemark's series plus its geographic data.
// Coordinates follow the source's longitude-first ordering.
type StationForecast struct {
	StationID   string
	StationName string
	GeoLon      float64
	GeoLat      float64
	Height      float64
	Series      []ForecastSeries
}

// ForecastSeries is one forecast parameter's values, positionally aligned to
// the document timesteps. A nil value is the source's "-" placeholder.
type ForecastSeries struct {
	Parameter string
	Values    []*float64
}

// ForecastRecord is the flattened long-form row handed to the writer: one
// station, one timestep, one parameter, with the document metadata attached.
type ForecastRecord struct {
	StationID         string    `json:"station_id"`
	DateStart         time.Time `json:"date_start"`
	Parameter         string    `json:"parameter"`
	Value             *float64  `json:"value"`
	ProductID         string    `json:"product_id"`
	GeneratingProcess string    `json:"generating_process"`
	DateIssued        time.Time `json:"date_issued"`
}

// ForecastStation is the station-level row derived from a placemark.
type ForecastStation struct {
	StationID   string  `json:"station_id"`
	StationName string  `json:"station_name"`
	GeoLat      float64 `json:"geo_lat"`
	GeoLon      float64 `json:"geo_lon"`
	Height      float64 `json:"height"`
}

// ForecastOptions restrict which placemarks and parameters are decoded.
// A nil filter means no restriction; ids absent from the document are simply
// never emitted.
type ForecastOptions struct {
	StationIDs []string
	Parameters []string
}

// Raw XML shapes. Tags are namespace-qualified; matching on local names
// alone would accept elements from the wrong namespace.

type kmlFile struct {
	XMLName  xml.Name    `xml:"http://www.opengis.net/kml/2.2 kml"`
	Document kmlDocument `xml:"http://www.opengis.net/kml/2.2 Document"`
}

type kmlDocument struct {
	ExtendedData kmlDocumentData `xml:"http://www.opengis.net/kml/2.2 ExtendedData"`
	Placemarks   []kmlPlacemark  `xml:"http://www.opengis.net/kml/2.2 Placemark"`
}

type kmlDocumentData struct {
	ProductDefinition productDefinition `xml:"https://opendata.dwd.de/weather/lib/pointforecast_dwd_extension_V1_0.xsd ProductDefinition"`
}

type productDefinition struct {
	ProductID         string   `xml:"https://opendata.dwd.de/weather/lib/pointforecast_dwd_extension_V1_0.xsd ProductID"`
	GeneratingProcess string   `xml:"https://opendata.dwd.de/weather/lib/pointforecast_dwd_extension_V1_0.xsd GeneratingProcess"`
	IssueTime         string   `xml:"https://opendata.dwd.de/weather/lib/pointforecast_dwd_extension_V1_0.xsd IssueTime"`
	TimeSteps         []string `xml:"https://opendata.dwd.de/weather/lib/pointforecast_dwd_extension_V1_0.xsd ForecastTimeSteps>TimeStep"`
}

type kmlPlacemark struct {
	Name         string           `xml:"http://www.opengis.net/kml/2.2 name"`
	Description  string           `xml:"http://www.opengis.net/kml/2.2 description"`
	ExtendedData kmlPlacemarkData `xml:"http://www.opengis.net/kml/2.2 ExtendedData"`
	Point        kmlPoint         `xml:"http://www.opengis.net/kml/2.2 Point"`
}

type kmlPlacemarkData struct {
	Forecasts []forecastElement `xml:"https://opendata.dwd.de/weather/lib/pointforecast_dwd_extension_V1_0.xsd Forecast"`
}

type forecastElement struct {
	ElementName string `xml:"https://opendata.dwd.de/weather/lib/pointforecast_dwd_extension_V1_0.xsd elementName,attr"`
	Value       string `xml:"https://opendata.dwd.de/weather/lib/pointforecast_dwd_extension_V1_0.xsd value"`
}

type kmlPoint struct {
	Coordinates string `xml:"http://www.opengis.net/kml/2.2 coordinates"`
}

// ParseForecastDocument parses a MOSMIX KML bundle. Every parameter series
// must align positionally with the shared timesteps; a length mismatch is a
// StructuralParseError, never a truncation.
func ParseForecastDocument(b []byte, opts ForecastOptions) (*ForecastDocument, error) {
	var raw kmlFile
	if err := xml.Unmarshal(b, &raw); err != nil {
		return nil, structuralErrorf("forecast document", "decode xml: %v", err)
	}

	def := raw.Document.ExtendedData.ProductDefinition
	if def.ProductID == "" {
		return nil, structuralErrorf("forecast document", "missing product definition")
	}
	issued, err := time.Parse(time.RFC3339, def.IssueTime)
	if err != nil {
		return nil, structuralErrorf("forecast document", "bad issue time %q: %v", def.IssueTime, err)
	}

	timesteps := make([]time.Time, len(def.TimeSteps))
	for i, s := range def.TimeSteps {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
		if err != nil {
			return nil, structuralErrorf("forecast document", "bad timestep %q: %v", s, err)
		}
		timesteps[i] = ts.UTC()
	}

	doc := &ForecastDocument{
		ProductID:         def.ProductID,
		GeneratingProcess: def.GeneratingProcess,
		DateIssued:        issued.UTC(),
		Timesteps:         timesteps,
	}

	var stationFilter map[string]struct{}
	if opts.StationIDs != nil {
		stationFilter = make(map[string]struct{}, len(opts.StationIDs))
		for _, id := range opts.StationIDs {
			stationFilter[PadStationID(id)] = struct{}{}
		}
	}
	parameterFilter := sliceToSet(opts.Parameters)

	for _, pm := range raw.Document.Placemarks {
		stationID := PadStationID(pm.Name)
		if stationFilter != nil {
			if _, ok := stationFilter[stationID]; !ok {
				continue
			}
		}

		sf := StationForecast{
			StationID:   stationID,
			StationName: strings.TrimSpace(pm.Description),
		}
		if sf.GeoLon, sf.GeoLat, sf.Height, err = parseCoordinates(stationID, pm.Point.Coordinates); err != nil {
			return nil, err
		}

		for _, fc := range pm.ExtendedData.Forecasts {
			if parameterFilter != nil {
				if _, ok := parameterFilter[fc.ElementName]; !ok {
					continue
				}
			}
			values, err := parsePackedValues(stationID, fc.ElementName, fc.Value, len(timesteps))
			if err != nil {
				return nil, err
			}
			sf.Series = append(sf.Series, ForecastSeries{Parameter: fc.ElementName, Values: values})
		}

		doc.Stations = append(doc.Stations, sf)
	}

	return doc, nil
}

// parsePackedValues splits a whitespace-packed value string into floats.
// The "-" placeholder becomes nil; the token count must equal the timestep
// count exactly.
func parsePackedValues(stationID, parameter, packed string, want int) ([]*float64, error) {
	source := "station " + stationID + " parameter " + parameter
	tokens := strings.Fields(packed)
	if len(tokens) != want {
		return nil, structuralErrorf(source, "%d values for %d timesteps", len(tokens), want)
	}
	values := make([]*float64, len(tokens))
	for i, tok := range tokens {
		if tok == "-" {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, structuralErrorf(source, "bad value %q: %v", tok, err)
		}
		values[i] = &v
	}
	return values, nil
}

// parseCoordinates splits a kml coordinates triple. The source order is
// longitude, latitude, height.
func parseCoordinates(stationID, coords string) (lon, lat, height float64, err error) {
	parts := strings.Split(strings.TrimSpace(coords), ",")
	if len(parts) != 3 {
		return 0, 0, 0, structuralErrorf("station "+stationID, "coordinates %q: want lon,lat,height", coords)
	}
	out := make([]float64, 3)
	for i, p := range parts {
		if out[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
			return 0, 0, 0, structuralErrorf("station "+stationID, "coordinates %q: %v", coords, err)
		}
	}
	return out[0], out[1], out[2], nil
}

// Records flattens the document into long-form rows, one per station,
// timestep, and parameter, each carrying the document metadata.
func (d *ForecastDocument) Records() []ForecastRecord {
	var records []ForecastRecord
	for _, sf := range d.Stations {
		for _, series := range sf.Series {
			for i, ts := range d.Timesteps {
				records = append(records, ForecastRecord{
					StationID:         sf.StationID,
					DateStart:         ts,
					Parameter:         series.Parameter,
					Value:             series.Values[i],
					ProductID:         d.ProductID,
					GeneratingProcess: d.GeneratingProcess,
					DateIssued:        d.DateIssued,
				})
			}
		}
	}
	return records
}

// StationRows emits the station-level geographic rows for every placemark
// in the document.
func (d *ForecastDocument) StationRows() []ForecastStation {
	rows := make([]ForecastStation, len(d.Stations))
	for i, sf := range d.Stations {
		rows[i] = ForecastStation{
			StationID:   sf.StationID,
			StationName: sf.StationName,
			GeoLat:      sf.GeoLat,
			GeoLon:      sf.GeoLon,
			Height:      sf.Height,
		}
	}
	return rows
}

func sliceToSet(items []string) map[string]struct{} {
	if items == nil {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
