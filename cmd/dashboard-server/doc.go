/*
Command dashboard-server serves the devnet dashboard backend.

It mounts the private network provisioning proxy, the network selector API
with its websocket event stream and, when a drop contract is configured, the
batch reveal API.

The upstream provisioning API is configured through the environment:

	STEALTHTEST_API_KEY           required, the server refuses to start without it
	STEALTHTEST_API_URL           upstream endpoint, defaults to the staging API
	STEALTHTEST_ENVIRONMENT_NAME  name of created environments, defaults to StealthTest

User state (custom and recently used chains) is kept in the backends given by
--state-uri, for example:

	dashboard-server --state-uri file:///var/lib/dashboard \
	  --state-uri "s3://dashboard-state/chains/?region=eu-west-1"
*/
package main
