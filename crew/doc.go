// Package crew assembles the default set of AI employees: who they are,
// what they react to, and which workflow each reaction routes to.
package crew
