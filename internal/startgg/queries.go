package startgg

import "fmt"

// GraphQL request templates. The response shapes are mirrored in types.go;
// the paginated templates all take $page/$perPage and nest their node list
// at the key paths passed to FetchAllNodes.

const tournamentEventsQuery = `query TournamentEvents($tournamentId: ID!, $gameId: ID!) {
  tournament(id: $tournamentId) {
    id
    name
    events(filter: {videogameId: [$gameId]}) {
      id
      name
      startAt
      isOnline
    }
  }
}`

const standingsQuery = `query EventStandings($eventId: ID!, $page: Int!, $perPage: Int!) {
  event(id: $eventId) {
    standings(query: {page: $page, perPage: $perPage}) {
      nodes {
        placement
        entrant {
          id
          name
          participants {
            user {
              id
              genderPronoun
              discriminator
              authorizations(types: [TWITTER, DISCORD]) {
                externalId
                externalUsername
                type
              }
            }
            player {
              id
              gamerTag
              prefix
            }
          }
        }
      }
    }
  }
}`

const seedsQuery = `query PhaseSeeds($phaseId: ID!, $page: Int!, $perPage: Int!) {
  phase(id: $phaseId) {
    id
    seeds(query: {page: $page, perPage: $perPage}) {
      pageInfo {
        total
        totalPages
      }
      nodes {
        id
        seedNum
        entrant {
          id
          participants {
            user {
              id
              genderPronoun
              discriminator
              authorizations(types: [TWITTER, DISCORD]) {
                externalId
                externalUsername
                type
              }
            }
            player {
              id
              gamerTag
              prefix
            }
          }
        }
      }
    }
  }
}`

const setsQuery = `query EventSets($eventId: ID!, $page: Int!, $perPage: Int!) {
  event(id: $eventId) {
    id
    name
    sets(page: $page, perPage: $perPage, sortType: STANDARD) {
      nodes {
        id
        state
        winnerId
        round
        fullRoundText
        phaseGroup {
          id
          displayIdentifier
          wave {
            id
            identifier
          }
        }
        slots {
          entrant {
            id
            participants {
              user {
                id
              }
            }
          }
          standing {
            stats {
              score {
                label
                value
              }
            }
          }
        }
        games {
          id
          orderNum
          winnerId
          entrant1Score
          entrant2Score
          stage {
            id
            name
          }
          selections {
            id
            entrant {
              id
            }
            character {
              id
              name
            }
          }
        }
      }
    }
  }
}`

const phasesQuery = `query EventPhases($eventId: ID!) {
  event(id: $eventId) {
    phases {
      id
    }
  }
}`

const eventDetailsQuery = `query EventById($eventId: ID!) {
  event(id: $eventId) {
    id
    name
    startAt
    isOnline
    tournament {
      id
      name
      startAt
      endAt
      countryCode
      city
      lat
      lng
      venueName
      timezone
      postalCode
      venueAddress
      mapsPlaceId
      url
    }
  }
}`

const userQuery = `query UserById($userId: ID!) {
  user(id: $userId) {
    id
    genderPronoun
    discriminator
    authorizations(types: [TWITTER, DISCORD]) {
      externalId
      externalUsername
      type
    }
  }
}`

const userPlayerQuery = `query UserAndPlayer($userId: ID!, $playerId: ID!) {
  user(id: $userId) {
    id
    genderPronoun
    discriminator
    authorizations(types: [TWITTER, DISCORD]) {
      externalId
      externalUsername
      type
    }
  }
  player(id: $playerId) {
    id
    gamerTag
    prefix
  }
}`

// tournamentsByGameQuery lists finished tournaments newest-first, optionally
// restricted to one country. The filter has no variable slot for the country
// in the API, so it is templated in.
func tournamentsByGameQuery(countryCode string) string {
	country := ""
	if countryCode != "" {
		country = fmt.Sprintf(", countryCode: %q", countryCode)
	}
	return fmt.Sprintf(`query TournamentsByGame($gameId: ID!, $perPage: Int!, $page: Int!) {
  tournaments(query: {perPage: $perPage, page: $page, sortBy: "startAt desc", filter: {videogameIds: [$gameId], past: true%s}}) {
    nodes {
      id
      name
      startAt
      endAt
      countryCode
      city
      lat
      lng
      venueName
      timezone
      postalCode
      venueAddress
      mapsPlaceId
      url
    }
    pageInfo {
      totalPages
    }
  }
}`, country)
}
