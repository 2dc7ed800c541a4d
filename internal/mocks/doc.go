// Package mocks provides hand-written test doubles for the interfaces the
// use cases and HTTP layer depend on.
//
// Each mock exposes function fields (FooFn) that override a method when set,
// and falls back to simple default values otherwise:
//
//	users := &mocks.MockUsersRepository{
//	    FindByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
//	        return nil, nil
//	    },
//	}
package mocks
