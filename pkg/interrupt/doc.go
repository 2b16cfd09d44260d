/*
Package interrupt normalizes the heterogeneous interrupt representations
raised by external executors into the canonical domain.Interrupt payload.

Executors are not contractually bound to one wire shape. Three are
recognized: a two-element sequence of action requests and review configs, a
one-element sequence wrapping an interrupt envelope, and a bare mapping or
struct exposing the fields directly. Anything else degrades to an empty
payload instead of failing.
*/
package interrupt
