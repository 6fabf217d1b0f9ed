/*
Package transform rewrites KTDB GTFS tables into OTP-compatible ones.

The centerpiece is StreamTransformer, which rewrites stop_times.txt (several
gigabytes in a national feed) in bounded memory: the table is pulled through a
ChunkReader one chunk of at most ChunkSize records at a time, the
stop_sequence column is coerced from "1.000000000" to "1", and each chunk is
written out before the next one is read. The first chunk truncates the
destination and writes the header; every later chunk is appended without one.

	files := transform.NewFeedFiles(afero.NewOsFs(), "raw", "otp")
	st, err := transform.NewStreamTransformer(files, transform.StreamOptions{
	    Field:     gtfs.StopSequenceField,
	    ChunkSize: 1_000_000,
	}, logger)
	if err != nil {
	    return err
	}
	res, err := st.Convert(ctx)

The remaining converters operate on small tables and hold them in memory:

  - RouteTypeMapper remaps routes.txt route_type codes.
  - TransfersConverter builds transfers.txt from the subway transfer workbook.
  - CopyWithoutBOM copies a table verbatim minus its byte-order mark.

Every input is read through StripBOM; no output is written with one.

# Failure semantics

A stop_sequence value that is not numeric aborts the stream with a
*CoercionError. Chunks already flushed stay on disk unless
StreamOptions.CleanupOnError is set, in which case the partial destination is
removed.
*/
package transform
