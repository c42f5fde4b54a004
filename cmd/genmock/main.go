// Command genmock writes fixture files in the three DWD payload formats:
// a Latin-1 station description table, a semicolon-separated measurement
// product, and a MOSMIX KML bundle. Each fixture is round-tripped through
// the actual domain parsers so test assertions match real pipeline
// behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out testdata/dwd
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/climatehub/dwd-cdc-etl/internal/domain"
)

const stationTable = `Stations_id von_datum bis_datum Stationshoehe geoBreite geoLaenge Stationsname Bundesland
----------- --------- --------- ------------- --------- --------- ------------------------ ----------

   3 19500401 20110331            202     50.7827    6.0941 Aachen                                   Nordrhein-Westfalen
 164 19950901 20260825             54     53.0316   13.9908 Angermünde                               Brandenburg
 403 19500101 20260825             51     52.4537   13.3017 Berlin-Dahlem (FU)                       Berlin
3376 18930101 20260825             81     52.3812   13.0622 Potsdam                                  Brandenburg
`

const measurementTable = `STATIONS_ID;MESS_DATUM;QN;PP_10;TT_10;TM5_10;RF_10;TD_10;eor
    3;202003131040;    3;  989.5;   7.3;   6.9;  71.0;   2.4;eor
    3;202003131050;    3;  989.6;   7.5;   7.0;  70.0;   2.5;eor
    3;202003131100;    3;-999   ;   7.8;   7.2;  69.0;   2.6;eor
  403;202003131040;    1;  991.2;   6.1;   5.8;  75.0;   2.0;eor
`

const forecastBundle = `<?xml version="1.0" encoding="UTF-8"?>
<kml:kml xmlns:kml="http://www.opengis.net/kml/2.2" xmlns:dwd="https://opendata.dwd.de/weather/lib/pointforecast_dwd_extension_V1_0.xsd">
<kml:Document>
<kml:ExtendedData>
<dwd:ProductDefinition>
<dwd:Issuer>Deutscher Wetterdienst</dwd:Issuer>
<dwd:ProductID>MOSMIX</dwd:ProductID>
<dwd:GeneratingProcess>DWD MOSMIX hourly</dwd:GeneratingProcess>
<dwd:IssueTime>2020-03-13T09:00:00.000Z</dwd:IssueTime>
<dwd:ForecastTimeSteps>
<dwd:TimeStep>2020-03-13T10:00:00.000Z</dwd:TimeStep>
<dwd:TimeStep>2020-03-13T11:00:00.000Z</dwd:TimeStep>
<dwd:TimeStep>2020-03-13T12:00:00.000Z</dwd:TimeStep>
</dwd:ForecastTimeSteps>
</dwd:ProductDefinition>
</kml:ExtendedData>
<kml:Placemark>
<kml:name>10381</kml:name>
<kml:description>BERLIN-DAHLEM</kml:description>
<kml:ExtendedData>
<dwd:Forecast dwd:elementName="TTT"><dwd:value>280.15 281.05 -</dwd:value></dwd:Forecast>
<dwd:Forecast dwd:elementName="PPPP"><dwd:value>101250.0 101260.0 101270.0</dwd:value></dwd:Forecast>
</kml:ExtendedData>
<kml:Point><kml:coordinates>13.3017,52.4537,51.0</kml:coordinates></kml:Point>
</kml:Placemark>
<kml:Placemark>
<kml:name>10379</kml:name>
<kml:description>POTSDAM</kml:description>
<kml:ExtendedData>
<dwd:Forecast dwd:elementName="TTT"><dwd:value>279.85 280.65 281.15</dwd:value></dwd:Forecast>
</kml:ExtendedData>
<kml:Point><kml:coordinates>13.0622,52.3812,81.0</kml:coordinates></kml:Point>
</kml:Placemark>
</kml:Document>
</kml:kml>
`

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for fixture files")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	if err := writeStationFixture(*outDir); err != nil {
		return fmt.Errorf("station fixture: %w", err)
	}
	if err := writeMeasurementFixture(*outDir); err != nil {
		return fmt.Errorf("measurement fixture: %w", err)
	}
	if err := writeForecastFixture(*outDir); err != nil {
		return fmt.Errorf("forecast fixture: %w", err)
	}
	return nil
}

// writeStationFixture encodes the table to Latin-1, the way the server
// serves it, and parses it back to confirm the round trip.
func writeStationFixture(dir string) error {
	encoded, err := charmap.ISO8859_1.NewEncoder().String(stationTable)
	if err != nil {
		return fmt.Errorf("encode latin-1: %w", err)
	}

	path := filepath.Join(dir, "zehn_min_tu_Beschreibung_Stationen.txt")
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		return err
	}

	stations, err := domain.ParseStationTable(strings.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("round trip: %w", err)
	}
	log.Printf("wrote %s: %d stations", path, len(stations))
	for _, s := range stations {
		log.Printf("  %s %-40s %s", s.StationID, s.Name, s.State)
	}
	return nil
}

func writeMeasurementFixture(dir string) error {
	path := filepath.Join(dir, "produkt_zehn_min_tu_00003.txt")
	if err := os.WriteFile(path, []byte(measurementTable), 0o644); err != nil {
		return err
	}

	records, err := domain.ParseMeasurementTable(strings.NewReader(measurementTable))
	if err != nil {
		return fmt.Errorf("round trip: %w", err)
	}

	var nullValues int
	for _, r := range records {
		if r.PP10 == nil {
			nullValues++
		}
	}
	log.Printf("wrote %s: %d records, %d null pressure values", path, len(records), nullValues)
	return nil
}

func writeForecastFixture(dir string) error {
	path := filepath.Join(dir, "MOSMIX_S_2020031309_240.kml")
	if err := os.WriteFile(path, []byte(forecastBundle), 0o644); err != nil {
		return err
	}

	doc, err := domain.ParseForecastDocument([]byte(forecastBundle), domain.ForecastOptions{})
	if err != nil {
		return fmt.Errorf("round trip: %w", err)
	}

	records := doc.Records()
	var placeholders int
	for _, r := range records {
		if r.Value == nil {
			placeholders++
		}
	}
	log.Printf("wrote %s: %d stations, %d timesteps, %d records (%d placeholders)",
		path, len(doc.Stations), len(doc.Timesteps), len(records), placeholders)
	return nil
}
