package main

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/swiftbyte/backend/api"
	"github.com/swiftbyte/backend/handler"
)

func main() {
	handler.BuildAndStart(func(awsConfig aws.Config) handler.APIGatewayHandler {
		a := api.NewFromConfig(awsConfig, api.LoadConfig())
		return handler.GetAPIGatewayHandler(a.Read)
	})
}
