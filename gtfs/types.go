package gtfs

// Feed file names
const (
	AgencyFile    = "agency.txt"
	CalendarFile  = "calendar.txt"
	StopsFile     = "stops.txt"
	RoutesFile    = "routes.txt"
	TripsFile     = "trips.txt"
	StopTimesFile = "stop_times.txt"
	TransfersFile = "transfers.txt"
)

// Rewritten columns
const (
	StopSequenceField = "stop_sequence"
	RouteTypeField    = "route_type"
)

// TransfersHeader is the column order of a generated transfers.txt
var TransfersHeader = []string{"from_stop_id", "to_stop_id", "transfer_type", "min_transfer_time"}

// TransferType is the GTFS transfers.txt transfer_type enum
type TransferType int

const (
	TransferRecommended TransferType = 0
	TransferGuaranteed  TransferType = 1
	TransferMinTime     TransferType = 2
	TransferForbidden   TransferType = 3
	TransferStaySeated  TransferType = 4
)

// RouteTypeMapping maps KTDB route_type codes to OTP-compatible GTFS codes
var RouteTypeMapping = map[int]int{
	0: 3,
	1: 1,
	2: 4,
	3: 3,
	4: 2,
	5: 3,
	6: 2,
	7: 1100,
}

// KTDBRouteTypeNames describes the source codes
var KTDBRouteTypeNames = map[int]string{
	0: "city/rural/village bus",
	1: "subway/light rail",
	2: "ferry",
	3: "intercity bus",
	4: "conventional rail",
	5: "airport limousine bus",
	6: "high-speed rail",
	7: "air",
}

// OTPRouteTypeNames describes the destination codes
var OTPRouteTypeNames = map[int]string{
	1:    "SUBWAY",
	2:    "RAIL",
	3:    "BUS",
	4:    "FERRY",
	1100: "AIRPLANE",
}

// ValidOTPRouteTypes is the set of codes a converted routes.txt may contain
var ValidOTPRouteTypes = map[int]struct{}{
	1:    {},
	2:    {},
	3:    {},
	4:    {},
	1100: {},
}

// RouteTypeName returns a human readable name for code, or "unknown".
func RouteTypeName(names map[int]string, code int) string {
	if n, ok := names[code]; ok {
		return n
	}
	return "unknown"
}
