/*
Package gtfs holds the static GTFS vocabulary shared by the preprocessor:
feed file names, the column names that get rewritten, and the route_type and
transfer_type code tables.

# Route types

KTDB publishes its own route_type enumeration. Left as-is, OpenTripPlanner
reads KTDB city buses (0) as trams and conventional rail (4) as ferries, so
every code is remapped to the standard GTFS (or TPEG extended) value:

	KTDB                      OTP
	0  city/rural bus     ->  3    BUS
	1  subway/light rail  ->  1    SUBWAY
	2  ferry              ->  4    FERRY
	3  intercity bus      ->  3    BUS
	4  conventional rail  ->  2    RAIL
	5  airport limousine  ->  3    BUS
	6  high-speed rail    ->  2    RAIL
	7  air                ->  1100 AIRPLANE

# Transfers

transfers.txt is optional for OTP, which generates walking transfers from stop
coordinates. The subway transfer workbook provides exact minimum transfer
times, written with transfer_type 2 (MIN_TIME).
*/
package gtfs
