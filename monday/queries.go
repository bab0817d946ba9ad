// ABOUTME: GraphQL query documents for the monday.com API
// ABOUTME: Field selections match the wire types in types.go
package monday

const meQuery = `
query {
	me {
		id
		name
	}
}`

const workspacesQuery = `
query ($limit: Int!, $page: Int!) {
	workspaces (limit: $limit, page: $page) {
		id
		name
		kind
		description
	}
}`

const boardsQuery = `
query ($limit: Int!, $page: Int!, $state: State, $workspaceIds: [ID]) {
	boards (limit: $limit, page: $page, state: $state, workspace_ids: $workspaceIds) {
		id
		name
		description
		state
		board_kind
		items_count
		permissions
		updated_at
		workspace {
			id
		}
		columns {
			id
			title
			type
			settings_str
			archived
		}
	}
}`

const boardColumnsQuery = `
query ($boardIds: [ID!]) {
	boards (ids: $boardIds) {
		id
		columns {
			id
			title
			type
			settings_str
			archived
		}
	}
}`

const usersQuery = `
query ($limit: Int!, $page: Int!) {
	users (limit: $limit, page: $page) {
		id
		name
		email
		enabled
		is_admin
		is_guest
		last_activity
	}
}`
