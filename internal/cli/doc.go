// Package cli implements the fleetdash command-line interface.
//
// Each Cobra command parses flags, loads the config, and hands off to a
// plain function that takes an *app and an io.Writer, so commands can be
// exercised in tests against fake APIs.
//
// # Command Structure
//
//	fleetdash                       - Live dashboard (same as "dashboard")
//	fleetdash agents [--probe]      - One-shot agent table
//	fleetdash files ls <agent>      - Browse an agent's directories
//	fleetdash files shared <agent>  - List shared files
//	fleetdash files upload|download|rm
//	fleetdash init                  - Write a config file
//	fleetdash version
//
// # Output
//
// Listing commands accept --json and then print the JSONEnvelope
// {success, data, error}. Once --json is set, a failure is printed as an
// envelope too, with a stable code from ErrorToJSON.
//
// # Flag Handling
//
// Global flags (--config, --debug, --no-color) are defined on the root
// command. OutputFlags and AddOutputFlags add --json to a command.
package cli
