/*
Package ports defines the driven ports (interfaces) of the transit engine.

These interfaces decouple transition application from storage and
coordination backends, so the same engine can memoize results in process or
share them across replicas.

# Key Interfaces

  - ConfigurationStore: persists configurations under a key (transition results, named inputs).
  - DistributedLocker: serialises work on one key across instances.
  - Executor: applies the execution transition; what outer adapters (HTTP) call.
*/
package ports
