package ghsearch

// GraphQL documents. The search and count documents carry a rateLimit block
// so every response refreshes the governor's view of the remote budget.

const searchQuery = `
query SearchRepos($q: String!, $cursor: String) {
  rateLimit {
    limit
    cost
    remaining
    resetAt
  }
  search(query: $q, type: REPOSITORY, first: 100, after: $cursor) {
    repositoryCount
    pageInfo { endCursor hasNextPage }
    nodes {
      ... on Repository {
        id
        name
        owner { login }
        stargazerCount
        url
      }
    }
  }
}
`

const countQuery = `
query CountRepos($q: String!) {
  rateLimit {
    limit
    cost
    remaining
    resetAt
  }
  search(query: $q, type: REPOSITORY, first: 1) {
    repositoryCount
  }
}
`

const rateLimitQuery = `
query CurrentRateLimit {
  rateLimit {
    limit
    cost
    remaining
    resetAt
  }
}
`
