package pkg

const ModuleName = "activity"
