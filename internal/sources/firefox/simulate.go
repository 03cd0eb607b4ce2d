package firefox

import "strconv"

// DefaultRequests are the URLs processed by Simulate.
var DefaultRequests = []string{
	"/home/index.aspx",
	"/home/catalog/index.aspx",
	"/home/catalog/100",
	"/home/catalog/121",
	"/home/catalog/144",
}

// Phases are the processing phases of a simulated request.
var Phases = []string{"initialize", "query_db", "query_webservice", "process_results", "send_results"}

// FailingRequest fails during the query_db phase.
const FailingRequest = "/home/catalog/121"

// Requests returns n request URLs: DefaultRequests first, then generated
// catalog pages.
func Requests(n int) []string {
	if n <= len(DefaultRequests) {
		return DefaultRequests[:max(n, 0)]
	}
	out := make([]string, 0, n)
	out = append(out, DefaultRequests...)
	for page := 200; len(out) < n; page++ {
		out = append(out, "/home/catalog/"+strconv.Itoa(page))
	}
	return out
}

// Simulate processes each request in turn, numbering them from 1.
func (l *Log) Simulate(requests []string) {
	for i, req := range requests {
		l.Request(i+1, req)
	}
}

// Request traces one simulated request. FailingRequest aborts after the
// query_db phase with a DebugTrace.
func (l *Log) Request(id int, url string) {
	l.RequestStart(id, url)

	for _, phase := range Phases {
		l.RequestPhase(id, phase)
		if url == FailingRequest && phase == "query_db" {
			l.DebugTrace("Error on page: " + url)
			break
		}
	}

	l.RequestStop(id)
}
