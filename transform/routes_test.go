package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/gtfs-preprocessor/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-preprocessor/internal/logging"
)

func TestRouteTypeMapper_MapCode(t *testing.T) {
	m := NewRouteTypeMapper(newTestFiles(t), nil, logging.Discard(), nil)
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"0", 3, true},
		{"1", 1, true},
		{"2", 4, true},
		{"3", 3, true},
		{"4", 2, true},
		{"5", 3, true},
		{"6", 2, true},
		{"7", 1100, true},
		{"4.0", 2, true},
		{"8", 0, false},
		{"bus", 0, false},
		{"", 0, false},
		{"1.5", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, got, ok := m.MapCode(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestRouteTypeMapper_Convert(t *testing.T) {
	files := newTestFiles(t)
	writeInput(t, files, gtfs.RoutesFile, string(BOM)+
		"route_id,agency_id,route_short_name,route_type\n"+
		"R1,A,100,0\n"+
		"R2,A,1호선,1\n"+
		"R3,A,KTX,6\n"+
		"R4,A,KE,7\n"+
		"R5,A,?,9\n"+
		"R6,A,402,0\n")

	res, err := NewRouteTypeMapper(files, nil, logging.Discard(), nil).Convert(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, res.Total)
	assert.Equal(t, map[int]int{0: 2, 1: 1, 6: 1, 7: 1, 9: 1}, res.Original)
	assert.Equal(t, map[int]int{3: 2, 1: 1, 2: 1, 1100: 1}, res.Converted)
	assert.Equal(t, 1, res.Unmapped)
	assert.Equal(t, map[string]int{"9": 1}, res.UnmappedRaw)

	assert.Equal(t,
		"route_id,agency_id,route_short_name,route_type\n"+
			"R1,A,100,3\n"+
			"R2,A,1호선,1\n"+
			"R3,A,KTX,2\n"+
			"R4,A,KE,1100\n"+
			"R5,A,?,\n"+
			"R6,A,402,3\n",
		readOutput(t, files, gtfs.RoutesFile))
}

func TestRouteTypeMapper_MissingColumn(t *testing.T) {
	files := newTestFiles(t)
	writeInput(t, files, gtfs.RoutesFile, "route_id\nR1\n")
	_, err := NewRouteTypeMapper(files, nil, logging.Discard(), nil).Convert(context.Background())
	assert.ErrorContains(t, err, "route_type")
}

func TestRouteTypeMapper_CustomMapping(t *testing.T) {
	files := newTestFiles(t)
	writeInput(t, files, gtfs.RoutesFile, "route_id,route_type\nR1,0\n")
	res, err := NewRouteTypeMapper(files, map[int]int{0: 700}, logging.Discard(), nil).Convert(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int]int{700: 1}, res.Converted)
	assert.Equal(t, "route_id,route_type\nR1,700\n", readOutput(t, files, gtfs.RoutesFile))
}
