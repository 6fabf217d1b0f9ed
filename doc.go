/*
Package preprocessor converts a KTDB (Korea Transport Database) GTFS feed into
a standard GTFS feed that OpenTripPlanner can build a graph from.

A run performs, in order:

 1. Check that every required input table exists.
 2. Copy the tables that need no rewriting, stripping the UTF-8 byte-order mark.
 3. Remap routes.txt route_type codes (see package gtfs).
 4. Rewrite stop_times.txt in bounded-memory chunks, turning stop_sequence
    values like "1.000000000" into "1".
 5. Build transfers.txt from the subway transfer workbook, unless skipped.

Each step returns its own result; Run merges them into a Report. ValidateOutput
re-checks a finished output directory.

	p, err := preprocessor.New(cfg, preprocessor.WithLogger(logger))
	if err != nil {
	    return err
	}
	report, err := p.Run(ctx)
	if err != nil {
	    return err
	}
	report.WriteSummary(os.Stdout)
*/
package preprocessor
