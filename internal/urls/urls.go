package urls

// All URLs point to the documentation site at https://muurk.github.io/earctl/

// Troubleshooting covers headsets that are not found or drop the
// connection during the handshake.
const Troubleshooting = "https://muurk.github.io/earctl/troubleshooting/"

// BluetoothPermissions explains granting Bluetooth access on macOS and
// the BlueZ group setup on Linux.
const BluetoothPermissions = "https://muurk.github.io/earctl/troubleshooting/permissions/"

// SupportedModels lists every model and which settings it offers.
const SupportedModels = "https://muurk.github.io/earctl/models/"

// BridgeAPI documents the HTTP endpoints and event stream of `earctl serve`.
const BridgeAPI = "https://muurk.github.io/earctl/bridge/api/"

// ProtocolNotes describes the frame format for use with `earctl decode`.
const ProtocolNotes = "https://muurk.github.io/earctl/protocol/"
