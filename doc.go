// Package filterchain composes request-handling logic into pipelines.
//
// A Service turns a request into a response. A Filter wraps a Service, and may change the request on the way in, the
// response on the way out, or both, including their types:
//
//	svc := filterchain.AndThen(logFilter, authFilter).AndThenService(businessLogic)
//
// Composition never modifies its operands; a Filter can be reused in front of any number of Services.
package filterchain
