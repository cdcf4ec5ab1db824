/*
Package retry decides whether, where and when a failed table request should
be retried.

A Policy is a stateless value consulted once per completed attempt with the
operation's retry Context. It returns an Info: retry or not, which endpoint
(primary or secondary, per the operation's LocationMode) and after what
delay. Actual waiting and cancellation are the caller's job; the policy never
sleeps and never blocks.

Throttling, timeouts and 5xx statuses are retryable; transport failures are
retryable unless the context was canceled. Everything else (conflicts,
precondition failures, auth errors) is fatal and surfaces verbatim. A 404
received from the secondary endpoint is retried against the primary, since it
may reflect replication lag rather than true absence.

Retries stop when the attempt count or the caller-supplied execution time
budget is exhausted.
*/
package retry
