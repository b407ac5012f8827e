// Package emit serializes the resolved model.
//
// [Build] snapshots a resolved [model.Index] into a [Model], a plain value
// that carries everything the outputs need: version sequence, canonical
// extensions with their output index and finalized dependency entries,
// aliases, and the device query structs. A Model round-trips through JSON,
// which is how the pipeline caches it.
//
// Outputs:
//   - [WriteHeader]: the C++ lookup header
//   - [WriteJSON] / [ReadJSON]: the model as JSON
//   - [WriteYAML]: the model as YAML
package emit
