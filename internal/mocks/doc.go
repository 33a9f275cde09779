// Package mocks provides shared test doubles for the store and auth interfaces.
//
// The store mocks are working in-memory implementations rather than
// expectation recorders, so service and API tests can run full create, read,
// update and delete flows without a database:
//
//	entities := mocks.NewMockEntityStore()
//	entities.UniqueColumns["regions"] = []string{"name"}
//
//	svc, err := service.NewEntityService(registry, entities, &mocks.RecordingEmitter{},
//	    service.EntityServiceOptions{}, nil)
//
// MockUserStore hashes passwords with FakeHash, which MockPasswordVerifier
// understands. TestifyMockActivityStore is a testify/mock recorder for the
// activity log.
package mocks
