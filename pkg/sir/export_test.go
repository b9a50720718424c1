package sir

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
)

func TestResultWriteCSV(t *testing.T) {
	res, err := Simulate(scenario(0.5))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	var buf bytes.Buffer
	if err := res.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}
	if len(records) != res.Len()+1 {
		t.Fatalf("expected %d records, got %d", res.Len()+1, len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(CSVHeader, ",") {
		t.Errorf("header = %v", records[0])
	}

	first := records[1]
	expected := []string{"2020-01-21", "23999990", "10", "0", "0.5000", "1.2500"}
	for i := range expected {
		if first[i] != expected[i] {
			t.Errorf("column %s = %q, expected %q", CSVHeader[i], first[i], expected[i])
		}
	}
	if records[len(records)-1][0] != "2020-12-31" {
		t.Errorf("last date = %s, expected 2020-12-31", records[len(records)-1][0])
	}
}
