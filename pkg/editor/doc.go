// Package editor is the command interface a user interface drives.
//
// An [Editor] owns everything one editing session needs: a node id counter
// shared by its two graph slots, a selection controller per slot, the
// selected t-norm and the latest analysis results. Editors share no state,
// so any number of them can live in one process.
//
// # Commands
//
// Model commands (AddNode, RemoveNode, MoveNode, ToggleSelection, AddEdge,
// RemoveEdge, ClearGraph, Load, SetTNorm) are synchronous. Removing a node
// drops it from the selection; clearing a slot empties it.
//
// # Analysis
//
// RequestTwinWidth, RequestSimilarity and RequestIsomorphism snapshot the
// graphs, release the editor lock for the network round trip and then
// store the answer in [Results]. The model can be edited while a request
// is in flight.
//
// Each result field has a generation number. A response is stored only if
// no newer request for the same field was started meanwhile, so a slow
// stale answer can never overwrite a fresh one. A failed request sets its
// field to the undefined marker and records the error for that field only.
package editor
