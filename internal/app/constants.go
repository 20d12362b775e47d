package app

// MinPlayersToStartGame defines the minimum number of seated players required to start a game.
const MinPlayersToStartGame = 3

// MaxPlayers is the largest table the round sizing supports.
const MaxPlayers = 7
