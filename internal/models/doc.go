// Package models defines the core domain models for subtrack.
//
// # Server-owned models
//
// The following models mirror the REST API payloads:
//   - Subscription: A recurring charge tracked for the signed-in user
//   - Draft: The mutable subset of a Subscription sent on create/update
//   - Page: One server-returned batch of subscriptions plus paging metadata
//
// # Client-owned models
//
//   - Session: The persisted auth token and user record
//   - KPISnapshot: Dashboard summary derived locally from a Page
//
// # Design Principles
//
// 1. **Server assigns identity**: Subscription.ID is never generated client-side
// 2. **Wire names are the API's**: JSON tags follow the API's camelCase fields
// 3. **No behavior beyond formatting**: Computation lives in dashboard and listing
package models
