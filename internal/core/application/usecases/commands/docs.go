// Package commands contains the operations that modify pipeline state.
//
// Every pipeline stage is one handler fed a TickCommand. A handler opens its own unit of
// work, reads committed state, stages its changes and commits once, so the next stage
// sees the whole result of the previous one and never a partial update. Handlers that
// contend for shared capacity (transport space, service slots) rebuild an explicit index
// at the start of the stage and update it as they go.
//
// Besides the stages, CreateOrderCommand lets operators inject manual orders.
package commands
