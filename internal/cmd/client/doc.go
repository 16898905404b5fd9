// Package client provides the `flightreview` command-line client.
//
// Local commands open the configured log directory and metadata store
// directly; the remote group talks to a running server over gRPC.
//
// Installation
//
//	go install github.com/rzbill/flightreview/cmd/flightreview@latest
//
// # Configuration
//
// Local commands read --config (JSON or YAML), then FLIGHTREVIEW_*
// environment variables, then flags such as --log-dir and
// --metadata-backend. A positional <file|id> argument is read as a file
// when one exists at that path and as a log id in the log directory
// otherwise. The gRPC address is read from FLIGHTREVIEW_GRPC (default
// 127.0.0.1:5007).
//
// Usage
//
//	flightreview inspect flight.ulg --text
//	flightreview inspect 1a2b3c --format cbor -o 1a2b3c.cbor
//
//	flightreview timeline flight.ulg --name nav_state --intervals
//	flightreview timeline flight.ulg --topic vehicle_land_detected --field landed
//
//	flightreview rows flight.ulg vehicle_attitude --where 'row.roll > 0.5' --limit 10
//
//	flightreview export flight.ulg -o flight.cbor
//
//	flightreview meta put 1a2b3c --rating 4 --description "hover test"
//	flightreview meta get 1a2b3c
//	flightreview meta list
//	flightreview import records.yaml
//
//	flightreview remote summary 1a2b3c
//	flightreview remote timeline 1a2b3c flight_mode
//
// Notes
//
//   - CBOR output uses deterministic encoding; --diag prints it in
//     diagnostic notation instead of raw bytes.
//   - meta put only replaces the fields given on the command line.
//   - import validates every id first and then writes all records in one
//     batch or transaction.
package client
