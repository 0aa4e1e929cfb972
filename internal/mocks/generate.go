package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name StatusClient --dir ../usecase --output usecase --outpkg usecasemock --filename status_client_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name EventClient --dir ../usecase --output usecase --outpkg usecasemock --filename event_client_mock.go
