// Package queue bounds the number of API calls in flight.
//
// A Gate admits up to Max calls at once. Further calls wait in a FIFO queue;
// when an admitted call finishes its slot passes directly to the
// longest-waiting entry, so admission order equals submission order.
//
// Cancellation happens only at the admission boundary: CancelAll (or the
// caller's context) removes waiting entries with a Cancelled error, while
// calls already running finish normally and then release their slot.
// Close does the same and also turns away every later call.
//
// Max = 1 makes the gate a strict serializer.
package queue
